package handler

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// PaymentHandler handles proof-of-payment submission and review
type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Submit handles POST /api/payments/submit (multipart: planId, screenshot)
func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	var upload *service.ScreenshotUpload
	if file, err := c.FormFile("screenshot"); err == nil {
		upload, err = readUpload(file)
		if err != nil {
			return respondError(c, err)
		}
	}

	payment, err := h.paymentService.Submit(c.UserContext(), middleware.GetUserID(c), c.FormValue("planId"), upload)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment submitted successfully. Waiting for admin verification.",
		"payment": payment,
	})
}

func readUpload(file *multipart.FileHeader) (*service.ScreenshotUpload, error) {
	fileHandle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer fileHandle.Close()

	data, err := io.ReadAll(fileHandle)
	if err != nil {
		return nil, err
	}

	return &service.ScreenshotUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// History handles GET /api/payments/history
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	payments, err := h.paymentService.History(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// Get handles GET /api/payments/:id
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	payment, err := h.paymentService.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

// List handles GET /api/admin/payments?status=
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	payments, err := h.paymentService.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

type verifyRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// Verify handles PUT /api/admin/payments/:id/verify
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	payment, err := h.paymentService.Decide(c.UserContext(), actorFrom(c), service.DecideInput{
		PaymentID:  c.Params("id"),
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Payment " + payment.Status + " successfully",
		"payment": payment,
	})
}
