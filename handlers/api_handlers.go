package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"dance-rollcall/db"
	"dance-rollcall/models"
)

// APIHandler holds the dependencies for API handlers, like the sheet service
type APIHandler struct {
	Service *db.SheetService
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service *db.SheetService) *APIHandler {
	useWireFieldNames()
	return &APIHandler{
		Service: service,
	}
}

// RegisterRoutes mounts every API route on router
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", HealthHandler)

	api := router.Group("/api")
	{
		// Roster routes
		api.GET("/groups", h.GetGroups)
		api.GET("/students", h.GetStudents)
		api.GET("/instructors", h.GetInstructors)
		api.GET("/instructor-groups", h.GetInstructorGroups)
		api.GET("/instructors/group/:groupId", h.GetInstructorsForGroup)

		// Attendance routes
		api.GET("/attendance", h.GetAttendance)
		api.POST("/attendance", h.SaveAttendance)

		// Reports
		api.GET("/reports/attendance", h.GetAttendanceReport)
		api.GET("/reports/attendance.xlsx", h.ExportAttendanceReport)

		// Import route
		api.POST("/import/students", h.ImportStudents)
	}
}

// respondError maps service errors to a status code and a JSON error body
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, db.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
	case errors.Is(err, db.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

var fieldNamesOnce sync.Once

// useWireFieldNames makes validation errors name fields as clients send
// them: the json name in bodies, the form name in query strings.
func useWireFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return ""
		})
	})
}

// bindError replies 400 with one message per invalid field when possible
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if fe.Param() != "" {
				fields[fe.Field()] = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
			} else {
				fields[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

// --- Roster Handlers ---

// GetGroups handles GET /api/groups
func (h *APIHandler) GetGroups(c *gin.Context) {
	groups, err := h.Service.GetGroups(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetGroups handler: %v", err)
		respondError(c, err, "Failed to retrieve groups")
		return
	}
	if groups == nil {
		// Return empty list instead of null for JSON consistency
		c.JSON(http.StatusOK, []models.Group{})
		return
	}
	c.JSON(http.StatusOK, groups)
}

type studentsQuery struct {
	GroupID      string `form:"groupId"`
	ShowInactive bool   `form:"showInactive"`
}

// GetStudents handles GET /api/students?groupId=&showInactive=
func (h *APIHandler) GetStudents(c *gin.Context) {
	var q studentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	students, err := h.Service.GetStudents(c.Request.Context(), q.GroupID, q.ShowInactive)
	if err != nil {
		log.Printf("Error in GetStudents handler for group %q: %v", q.GroupID, err)
		respondError(c, err, "Failed to retrieve students")
		return
	}
	if students == nil {
		c.JSON(http.StatusOK, []models.Student{})
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetInstructors handles GET /api/instructors
func (h *APIHandler) GetInstructors(c *gin.Context) {
	instructors, err := h.Service.GetInstructors(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetInstructors handler: %v", err)
		respondError(c, err, "Failed to retrieve instructors")
		return
	}
	if instructors == nil {
		c.JSON(http.StatusOK, []models.Instructor{})
		return
	}
	c.JSON(http.StatusOK, instructors)
}

// GetInstructorGroups handles GET /api/instructor-groups
func (h *APIHandler) GetInstructorGroups(c *gin.Context) {
	links, err := h.Service.GetInstructorGroups(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetInstructorGroups handler: %v", err)
		respondError(c, err, "Failed to retrieve instructor groups")
		return
	}
	if links == nil {
		c.JSON(http.StatusOK, []models.InstructorGroup{})
		return
	}
	c.JSON(http.StatusOK, links)
}

// GetInstructorsForGroup handles GET /api/instructors/group/:groupId
func (h *APIHandler) GetInstructorsForGroup(c *gin.Context) {
	groupID := c.Param("groupId")
	instructors, err := h.Service.GetInstructorsForGroup(c.Request.Context(), groupID)
	if err != nil {
		log.Printf("Error in GetInstructorsForGroup handler for group %s: %v", groupID, err)
		respondError(c, err, "Failed to retrieve instructors for the group")
		return
	}
	if instructors == nil {
		c.JSON(http.StatusOK, []models.GroupInstructor{})
		return
	}
	c.JSON(http.StatusOK, instructors)
}

// --- Attendance Handlers ---

type attendanceQuery struct {
	GroupID string `form:"groupId" binding:"required"`
	Date    string `form:"date" binding:"required,datetime=2006-01-02"`
}

// GetAttendance handles GET /api/attendance?groupId=&date=
func (h *APIHandler) GetAttendance(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.GetAttendance(c.Request.Context(), q.GroupID, q.Date)
	if err != nil {
		log.Printf("Error in GetAttendance handler for group %s on %s: %v", q.GroupID, q.Date, err)
		respondError(c, err, "Failed to retrieve attendance")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveAttendance handles POST /api/attendance.
// Replies 207 when only some of the records could be written.
func (h *APIHandler) SaveAttendance(c *gin.Context) {
	var req models.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.SaveAttendance(c.Request.Context(), req)
	if err != nil {
		log.Printf("Error in SaveAttendance handler for group %s on %s: %v", req.GroupID, req.Date, err)
		respondError(c, err, "Failed to save attendance")
		return
	}
	if resp.Failed > 0 {
		c.JSON(http.StatusMultiStatus, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- Report Handlers ---

type reportQuery struct {
	GroupID string `form:"groupId" binding:"required"`
	From    string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// GetAttendanceReport handles GET /api/reports/attendance?groupId=&from=&to=
func (h *APIHandler) GetAttendanceReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	rep, err := h.Service.AttendanceReport(c.Request.Context(), q.GroupID, q.From, q.To)
	if err != nil {
		log.Printf("Error in GetAttendanceReport handler for group %s: %v", q.GroupID, err)
		respondError(c, err, "Failed to build attendance report")
		return
	}
	c.JSON(http.StatusOK, rep)
}

// ExportAttendanceReport handles GET /api/reports/attendance.xlsx
func (h *APIHandler) ExportAttendanceReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	rep, err := h.Service.AttendanceReport(c.Request.Context(), q.GroupID, q.From, q.To)
	if err != nil {
		log.Printf("Error in ExportAttendanceReport handler for group %s: %v", q.GroupID, err)
		respondError(c, err, "Failed to build attendance report")
		return
	}
	var buf bytes.Buffer
	if err := db.WriteReportXLSX(rep, &buf); err != nil {
		log.Printf("Error rendering report workbook for group %s: %v", q.GroupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}
	filename := fmt.Sprintf("attendance-%s.xlsx", q.GroupID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Import Handler ---

// ImportStudents handles POST /api/import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	// Get groupId from form data
	groupID := c.PostForm("groupId")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'groupId' in form data"})
		return
	}

	// Get file from form data
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Printf("Error getting form file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Printf("Received file upload: %s for group: %s", header.Filename, groupID)

	importedCount, err := h.Service.ImportStudentsFromExcel(c.Request.Context(), file, groupID)
	if err != nil {
		log.Printf("Error importing students from file %s for group %s: %v", header.Filename, groupID, err)
		respondError(c, err, "Failed to import students")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": importedCount,
		"groupId":       groupID,
	})
}

// --- Health Handler ---

// HealthHandler handles GET /health
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
