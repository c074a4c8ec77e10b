// Package handler exposes the academic record services over HTTP.
package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus/internal/apperr"
	"campus/internal/attendance"
	"campus/internal/auth"
	"campus/internal/catalog"
	"campus/internal/dashboard"
	"campus/internal/enrollment"
	"campus/internal/grading"
	"campus/internal/model"
	"campus/internal/notification"
	"campus/internal/roster"
)

// AuthConfig carries what token issuance needs.
type AuthConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Handler binds the domain services to gin routes.
type Handler struct {
	roster        *roster.Service
	catalog       *catalog.Service
	enrollments   *enrollment.Service
	attendance    *attendance.Service
	grades        *grading.Service
	notifications *notification.Service
	dashboard     *dashboard.Service
	authCfg       AuthConfig
}

// New creates a handler over the wired services.
func New(r *roster.Service, cat *catalog.Service, e *enrollment.Service, a *attendance.Service,
	g *grading.Service, n *notification.Service, d *dashboard.Service, authCfg AuthConfig) *Handler {
	return &Handler{
		roster:        r,
		catalog:       cat,
		enrollments:   e,
		attendance:    a,
		grades:        g,
		notifications: n,
		dashboard:     d,
		authCfg:       authCfg,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/auth/register", h.RegisterUser)
	r.POST("/v1/auth/login", h.Login)

	v1 := r.Group("/v1", auth.UserAuth(h.authCfg.SigningKey, h.authCfg.Issuer))

	students := v1.Group("", auth.RequireType(model.UserTypeStudent))
	students.POST("/registrations", h.CreateRegistration)
	students.DELETE("/registrations/:id", h.DropRegistration)
	students.GET("/registrations", h.ListRegistrations)
	students.GET("/attendance", h.MyAttendance)
	students.GET("/gpa", h.GPA)
	students.GET("/dashboard", h.Dashboard)

	teachers := v1.Group("", auth.RequireType(model.UserTypeTeacher))
	teachers.POST("/courses", h.CreateCourse)
	teachers.POST("/sessions", h.CreateSession)
	teachers.POST("/terms", h.CreateTerm)
	teachers.POST("/offerings", h.CreateOffering)
	teachers.POST("/attendance", h.MarkAttendance)
	teachers.POST("/ct", h.RecordCT)
	teachers.POST("/results", h.FinalizeResult)
	teachers.POST("/broadcasts", h.CreateBroadcast)
	teachers.POST("/broadcasts/:id/resend", h.ResendBroadcast)
	teachers.GET("/broadcasts/recipients", h.BroadcastRecipients)
	teachers.GET("/offerings/:id/roster", h.OfferingRoster)
	teachers.GET("/students", h.SearchStudents)
	teachers.GET("/students/:id", h.GetStudent)
	teachers.PUT("/students/:id", h.UpdateStudent)

	v1.GET("/courses", h.ListCourses)
	v1.GET("/offerings", h.ListOfferings)
	v1.GET("/attendance/:offering_id", h.OfferingAttendance)
	v1.GET("/ct", h.CTSummary)
	v1.GET("/notifications", h.ListNotifications)
	v1.GET("/notifications/unread-count", h.UnreadCount)
	v1.POST("/notifications/:id/read", h.MarkNotificationRead)
	v1.POST("/notifications/read-all", h.MarkAllNotificationsRead)
}

// fail maps the error taxonomy onto HTTP statuses. Unclassified errors
// become opaque 500s so internals never leak.
func fail(c *gin.Context, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Consistency:
		// Stored but fan-out incomplete; the client retries via resend.
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperr.CodeOf(err)})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// ---------- Auth ----------

type registerRequest struct {
	UserType        string `json:"user_type" binding:"required,oneof=student teacher"`
	UserID          string `json:"user_id"`
	Password        string `json:"password" binding:"required,min=8"`
	FullName        string `json:"full_name" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Department      string `json:"department"`
	Session         string `json:"session"`
	CurrentSemester int    `json:"current_semester"`
	Designation     string `json:"designation"`
}

// RegisterUser creates a student or teacher account and issues tokens.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var userID string
	var profile any
	if req.UserType == model.UserTypeTeacher {
		t, err := h.roster.CreateTeacher(ctx, roster.NewTeacherInput{
			UserID:      req.UserID,
			Password:    req.Password,
			FullName:    req.FullName,
			Email:       req.Email,
			Department:  req.Department,
			Designation: req.Designation,
		})
		if err != nil {
			fail(c, err)
			return
		}
		userID, profile = t.TeacherID, t
	} else {
		s, err := h.roster.CreateStudent(ctx, roster.NewStudentInput{
			UserID:          req.UserID,
			Password:        req.Password,
			FullName:        req.FullName,
			Email:           req.Email,
			Department:      req.Department,
			Session:         req.Session,
			CurrentSemester: req.CurrentSemester,
		})
		if err != nil {
			fail(c, err)
			return
		}
		userID, profile = s.StudentID, s
	}

	tokens, err := auth.Issue(userID, req.UserType, h.authCfg.Issuer, h.authCfg.SigningKey,
		h.authCfg.AccessTTL, h.authCfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          profile,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// Login verifies credentials and issues tokens.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.roster.Authenticate(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeBadCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials", "code": apperr.CodeBadCredentials})
			return
		}
		fail(c, err)
		return
	}
	tokens, err := auth.Issue(u.UserID, u.UserType, h.authCfg.Issuer, h.authCfg.SigningKey,
		h.authCfg.AccessTTL, h.authCfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":       u.UserID,
		"user_type":     u.UserType,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Catalog ----------

// CreateCourse adds a course to the catalog.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req struct {
		CourseID    string `json:"course_id" binding:"required"`
		CourseName  string `json:"course_name" binding:"required"`
		Credits     int    `json:"credits" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), model.Course{
		CourseID:    req.CourseID,
		CourseName:  req.CourseName,
		Credits:     req.Credits,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// ListCourses returns the course catalog.
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
}

// CreateSession adds an academic year.
func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		SessionName string `json:"session_name" binding:"required"`
		StartDate   string `json:"start_date" binding:"required"`
		EndDate     string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := dateRange(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	sess, err := h.catalog.CreateSession(c.Request.Context(), model.Session{
		SessionName: req.SessionName,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// CreateTerm adds a term under a session.
func (h *Handler) CreateTerm(c *gin.Context) {
	var req struct {
		SessionID  int64  `json:"session_id" binding:"required"`
		TermName   string `json:"term_name" binding:"required"`
		TermNumber int    `json:"term_number" binding:"required"`
		StartDate  string `json:"start_date" binding:"required"`
		EndDate    string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := dateRange(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	term, err := h.catalog.CreateTerm(c.Request.Context(), model.Term{
		SessionID:  req.SessionID,
		TermName:   req.TermName,
		TermNumber: req.TermNumber,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, term)
}

// CreateOffering opens one taught section of a course. teacher_id defaults
// to the caller.
func (h *Handler) CreateOffering(c *gin.Context) {
	var req struct {
		CourseID    string `json:"course_id" binding:"required"`
		TeacherID   string `json:"teacher_id"`
		TermID      int64  `json:"term_id" binding:"required"`
		MaxCapacity int    `json:"max_capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TeacherID == "" {
		req.TeacherID = auth.FromContext(c).UserID
	}
	off, err := h.catalog.CreateOffering(c.Request.Context(), model.Offering{
		CourseID:    req.CourseID,
		TeacherID:   req.TeacherID,
		TermID:      req.TermID,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, off)
}

// ListOfferings lists offerings with course and term names; ?term_id
// narrows to one term.
func (h *Handler) ListOfferings(c *gin.Context) {
	var termID int64
	if v := c.Query("term_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid term_id"})
			return
		}
		termID = parsed
	}
	offerings, err := h.catalog.ListOfferings(c.Request.Context(), termID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings, "count": len(offerings)})
}

func dateRange(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD", "code": apperr.CodeInvalidDate})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD", "code": apperr.CodeInvalidDate})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ---------- Registrations ----------

// CreateRegistration enrolls the caller in an offering.
func (h *Handler) CreateRegistration(c *gin.Context) {
	var req struct {
		OfferingID int64 `json:"offering_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims := auth.FromContext(c)
	reg, err := h.enrollments.Register(c.Request.Context(), claims.UserID, req.OfferingID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// DropRegistration marks the caller's registration dropped.
func (h *Handler) DropRegistration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.enrollments.Drop(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registration_id": id, "status": model.RegStatusDropped})
}

// ListRegistrations lists the caller's enrollments, optionally filtered
// by session, term_id or status.
func (h *Handler) ListRegistrations(c *gin.Context) {
	claims := auth.FromContext(c)
	f := enrollment.Filter{
		Session: c.Query("session"),
		Status:  c.Query("status"),
	}
	if v := c.Query("term_id"); v != "" {
		termID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid term_id"})
			return
		}
		f.TermID = termID
	}
	list, err := h.enrollments.ListEnrollments(c.Request.Context(), claims.UserID, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": list, "count": len(list)})
}

// ---------- Attendance ----------

// MarkAttendance records a class session's attendance sheet.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req struct {
		OfferingID int64             `json:"offering_id" binding:"required"`
		ClassDate  string            `json:"class_date" binding:"required"`
		Entries    map[string]string `json:"entries" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.Parse("2006-01-02", req.ClassDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_date must be YYYY-MM-DD", "code": apperr.CodeInvalidDate})
		return
	}
	count, err := h.attendance.Mark(c.Request.Context(), req.OfferingID, day, req.Entries)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offering_id": req.OfferingID, "class_date": req.ClassDate, "marked": count})
}

// MyAttendance returns the caller's per-course and overall attendance.
func (h *Handler) MyAttendance(c *gin.Context) {
	claims := auth.FromContext(c)
	agg, err := h.attendance.AggregateFor(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"courses": agg.Courses, "overall": agg.Overall, "floor_pct": h.attendance.Floor()}
	if agg.Overall.Defined() {
		resp["overall_pct"] = agg.Overall.Percent()
	}
	c.JSON(http.StatusOK, resp)
}

// OfferingAttendance returns one student's ratio for one offering.
// Students see only their own; teachers pass student_id.
func (h *Handler) OfferingAttendance(c *gin.Context) {
	offeringID, ok := pathID(c, "offering_id")
	if !ok {
		return
	}
	claims := auth.FromContext(c)
	studentID := claims.UserID
	if claims.UserType == model.UserTypeTeacher {
		studentID = c.Query("student_id")
	}
	ratio, err := h.attendance.Percentage(c.Request.Context(), studentID, offeringID)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"offering_id": offeringID, "student_id": studentID,
		"present": ratio.Present, "total": ratio.Total, "defined": ratio.Defined()}
	if ratio.Defined() {
		resp["percent"] = ratio.Percent()
	}
	c.JSON(http.StatusOK, resp)
}

// ---------- Grading ----------

// RecordCT upserts one continuous-assessment score.
func (h *Handler) RecordCT(c *gin.Context) {
	var req struct {
		OfferingID    int64   `json:"offering_id" binding:"required"`
		StudentID     string  `json:"student_id" binding:"required"`
		CTNumber      int     `json:"ct_number" binding:"required"`
		MarksObtained float64 `json:"marks_obtained"`
		TotalMarks    float64 `json:"total_marks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ct, err := h.grades.RecordCT(c.Request.Context(), model.CTResult{
		OfferingID:    req.OfferingID,
		StudentID:     req.StudentID,
		CTNumber:      req.CTNumber,
		MarksObtained: req.MarksObtained,
		TotalMarks:    req.TotalMarks,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

// CTSummary returns per-CT marks plus totals for one (offering, student).
// Students see only their own.
func (h *Handler) CTSummary(c *gin.Context) {
	offeringID, err := strconv.ParseInt(c.Query("offering_id"), 10, 64)
	if err != nil || offeringID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offering_id"})
		return
	}
	claims := auth.FromContext(c)
	studentID := claims.UserID
	if claims.UserType == model.UserTypeTeacher {
		studentID = c.Query("student_id")
	}
	sum, err := h.grades.CTSummaryFor(c.Request.Context(), offeringID, studentID)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"results": sum.Results, "total_obtained": sum.TotalObtained, "total_possible": sum.TotalPossible}
	if sum.Defined() {
		resp["percent"] = sum.Percent()
	}
	c.JSON(http.StatusOK, resp)
}

// FinalizeResult computes and stores a semester result from marks or an
// override grade.
func (h *Handler) FinalizeResult(c *gin.Context) {
	var req struct {
		OfferingID    int64    `json:"offering_id" binding:"required"`
		StudentID     string   `json:"student_id" binding:"required"`
		Marks         *float64 `json:"marks"`
		OverrideGrade *string  `json:"override_grade"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.grades.Finalize(c.Request.Context(), req.OfferingID, req.StudentID, grading.FinalizeInput{
		Marks:         req.Marks,
		OverrideGrade: req.OverrideGrade,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GPA returns the caller's cumulative GPA, or a term GPA when term_id is
// given. An undefined GPA reports gpa null rather than zero.
func (h *Handler) GPA(c *gin.Context) {
	claims := auth.FromContext(c)
	var termID int64
	if v := c.Query("term_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid term_id"})
			return
		}
		termID = parsed
	}
	gpa, err := h.grades.TermGPA(c.Request.Context(), claims.UserID, termID)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"credits": gpa.Credits, "gpa": nil}
	if gpa.Defined() {
		resp["gpa"] = gpa.Value()
	}
	c.JSON(http.StatusOK, resp)
}

// ---------- Broadcasts ----------

// CreateBroadcast fans an announcement out to the matching students.
func (h *Handler) CreateBroadcast(c *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required"`
		Message    string `json:"message" binding:"required"`
		Department string `json:"department"`
		Session    string `json:"session"`
		Term       string `json:"term"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims := auth.FromContext(c)
	res, err := h.notifications.Broadcast(c.Request.Context(), notification.BroadcastInput{
		TeacherID:  claims.UserID,
		Title:      req.Title,
		Message:    req.Message,
		Department: req.Department,
		Session:    req.Session,
		Term:       req.Term,
	})
	if err != nil {
		if apperr.IsKind(err, apperr.Consistency) {
			// The broadcast row exists; surface its id so the client can
			// retry with resend.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":        err.Error(),
				"code":         apperr.CodePartialFanout,
				"broadcast_id": res.Broadcast.BroadcastID,
			})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ResendBroadcast re-runs fan-out for a stored broadcast, skipping the
// recipients already notified.
func (h *Handler) ResendBroadcast(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.notifications.Resend(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BroadcastRecipients previews who a filtered broadcast would reach.
func (h *Handler) BroadcastRecipients(c *gin.Context) {
	ids, err := h.notifications.ResolveBroadcastRecipients(c.Request.Context(),
		c.Query("department"), c.Query("session"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_ids": ids, "count": len(ids)})
}

// ---------- Notifications ----------

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true narrows to unread.
func (h *Handler) ListNotifications(c *gin.Context) {
	claims := auth.FromContext(c)
	unreadOnly := c.Query("unread") == "true"
	list, err := h.notifications.List(c.Request.Context(), claims.UserID, unreadOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "count": len(list)})
}

// UnreadCount returns the caller's unread notification count.
func (h *Handler) UnreadCount(c *gin.Context) {
	claims := auth.FromContext(c)
	n, err := h.notifications.CountUnread(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkNotificationRead marks one notification read; repeat calls no-op.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

// MarkAllNotificationsRead marks everything read for the caller.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	claims := auth.FromContext(c)
	count, err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// ---------- Dashboards ----------

// Dashboard returns the student landing view.
func (h *Handler) Dashboard(c *gin.Context) {
	claims := auth.FromContext(c)
	sum, err := h.dashboard.StudentSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// OfferingRoster lists an offering's active students with their derived
// attendance and CT figures.
func (h *Handler) OfferingRoster(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.dashboard.TeacherRoster(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offering_id": id, "students": rows, "count": len(rows)})
}

// ---------- Roster ----------

// SearchStudents lists students matching the optional filters.
func (h *Handler) SearchStudents(c *gin.Context) {
	students, err := h.roster.SearchStudents(c.Request.Context(),
		c.Query("department"), c.Query("session"), c.Query("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

// GetStudent returns one student's profile.
func (h *Handler) GetStudent(c *gin.Context) {
	stu, err := h.roster.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stu)
}

// UpdateStudent edits a student's department, session or semester.
func (h *Handler) UpdateStudent(c *gin.Context) {
	studentID := c.Param("id")
	var req struct {
		Department      string `json:"department" binding:"required"`
		Session         string `json:"session" binding:"required"`
		CurrentSemester int    `json:"current_semester" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stu := model.Student{
		StudentID:       studentID,
		Department:      req.Department,
		Session:         req.Session,
		CurrentSemester: req.CurrentSemester,
	}
	if err := h.roster.UpdateStudent(c.Request.Context(), stu); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stu)
}
