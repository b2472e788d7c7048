package attendance

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

type handler struct {
	service Service
}

// studentView is a record as shown to operators.
type studentView struct {
	domain.Record

	StatusLabel   string `json:"status_label"`
	PaymentStatus string `json:"payment_status"`
}

type addStudentRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	PaymentDate string `json:"payment_date"`
}

type paymentRequest struct {
	PaymentDate string `json:"payment_date"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type messageRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func toView(record domain.Record) studentView {
	return studentView{
		Record:        record,
		StatusLabel:   record.Status.Label(),
		PaymentStatus: record.PaymentStatus(),
	}
}

func (h *handler) listStudents(c *gin.Context) {
	records, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	views := make([]studentView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}

	c.JSON(http.StatusOK, views)
}

func (h *handler) addStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "잘못된 요청입니다.")
		return
	}

	switch {
	case strings.TrimSpace(req.Name) == "":
		h.badRequest(c, "이름을 입력해주세요.")
		return
	case strings.TrimSpace(req.Phone) == "":
		h.badRequest(c, "연락처를 입력해주세요.")
		return
	}

	record, err := h.service.AddStudent(c.Request.Context(), req.Name, req.Phone, req.PaymentDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": record.Name + "님 등록 완료",
		"student": toView(record),
	})
}

func (h *handler) deleteStudent(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	record, err := h.service.DeleteStudent(c.Request.Context(), row)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": record.Name + "님 삭제 완료"})
}

func (h *handler) checkIn(c *gin.Context) {
	h.setPresence(c, domain.CheckedIn, "등원")
}

func (h *handler) checkOut(c *gin.Context) {
	h.setPresence(c, domain.CheckedOut, "하원")
}

func (h *handler) setPresence(c *gin.Context, status domain.Status, label string) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	record, notification, err := h.service.SetPresence(c.Request.Context(), row, status)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"message": fmt.Sprintf("%s님 %s 처리 완료", record.Name, label),
		"student": toView(record),
	}
	if notification != "" {
		body["notification"] = notification
	}

	c.JSON(http.StatusOK, body)
}

func (h *handler) setPayment(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "잘못된 요청입니다.")
		return
	}

	record, err := h.service.SetPaymentDate(c.Request.Context(), row, strings.TrimSpace(req.PaymentDate))
	if err != nil {
		h.fail(c, err)
		return
	}

	message := record.Name + "님 원비 납입 등록 완료"
	if record.PaymentDate == "" {
		message = record.Name + "님 납입 정보 삭제 완료"
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "student": toView(record)})
}

func (h *handler) setPhone(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		h.badRequest(c, "연락처를 입력해주세요.")
		return
	}

	record, err := h.service.SetPhone(c.Request.Context(), row, strings.TrimSpace(req.Phone))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   record.Name + "님 연락처 수정 완료",
		"new_phone": record.Phone,
	})
}

func (h *handler) sendMessage(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "잘못된 요청입니다.")
		return
	}

	kind, err := render.ParseManualKind(req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}

	record, outcome, err := h.service.SendMessage(c.Request.Context(), row, kind, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}

	if outcome.Status != dispatch.StatusDelivered {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "메시지 발송 실패: " + outcome.Detail,
			"outcome": outcome,
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": record.Name + "님에게 메시지 발송 완료",
		"outcome": outcome,
	})
}

func (h *handler) deliveries(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Deliveries(c.Request.Context()))
}

// row parses the :row path parameter and answers 400 when it is invalid.
func (h *handler) row(c *gin.Context) (int, bool) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row <= 0 {
		h.badRequest(c, "잘못된 행 번호입니다.")
		return 0, false
	}

	return row, true
}

func (h *handler) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// fail maps a service error onto a status code and an operator message.
func (h *handler) fail(c *gin.Context, err error) {
	var (
		status  int
		message string
	)

	switch {
	case errors.Is(err, roster.ErrNotFound):
		status, message = http.StatusNotFound, "학생을 찾을 수 없습니다."
	case errors.Is(err, ErrAlreadyInState):
		status, message = http.StatusConflict, "이미 해당 상태입니다."
	case errors.Is(err, ErrNoRecipient):
		status, message = http.StatusBadRequest, "연락처가 없습니다."
	case errors.Is(err, render.ErrInvalidRequest):
		status, message = http.StatusBadRequest, "잘못된 메시지 타입입니다."
	default:
		status, message = http.StatusInternalServerError, "처리 중 오류가 발생했습니다."
	}

	if status == http.StatusInternalServerError {
		logger.ErrorKV(c.Request.Context(), "Request failed",
			"path", c.FullPath(), "error_kind", errorKind(err), "error", err)
	}

	c.JSON(status, gin.H{"success": false, "message": message})
}

func errorKind(err error) string {
	if errors.Is(err, roster.ErrStoreWrite) {
		return "store_write"
	}

	return "internal"
}
