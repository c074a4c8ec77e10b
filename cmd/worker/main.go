package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campus/internal/attendance"
	"campus/internal/config"
	"campus/internal/notification"
	"campus/internal/queue"
	"campus/internal/store"
)

// Worker consumes attendance threshold events, applies the suppression
// window, and posts low-attendance warnings.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campus:events")
	}

	notifSvc := notification.NewService(notification.NewRepository(db.Client), redisClient)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeAttendanceThreshold {
			continue
		}

		var evt attendance.ThresholdEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad threshold event payload: %v", err)
			continue
		}

		// One warning per (student, offering) per window; re-marking
		// attendance while the key lives stays silent.
		key := fmt.Sprintf("attn:notified:%s:%d", evt.StudentID, evt.OfferingID)
		won, err := redisClient.Acquire(ctx, key, cfg.AttendanceNotifyEvery)
		if err != nil {
			log.Printf("suppression check failed for %s: %v", key, err)
			continue
		}
		if !won {
			continue
		}

		if err := notifSvc.NotifyAttendanceThreshold(ctx, evt.StudentID, evt.OfferingID, evt.Percent); err != nil {
			log.Printf("threshold notify failed for %s/%d: %v", evt.StudentID, evt.OfferingID, err)
			continue
		}
		log.Printf("low attendance warning sent to %s for offering %d (%.1f%%)", evt.StudentID, evt.OfferingID, evt.Percent)
	}

	log.Println("worker stopped")
}
