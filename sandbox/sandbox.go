// Package sandbox imitates the parts of the PagSeguro and Asaas APIs that the
// relay calls, so the relay can run end to end without provider accounts.
package sandbox

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusWaiting  = "WAITING"
	StatusPaid     = "PAID"
	StatusPending  = "PENDING"
	StatusReceived = "RECEIVED"
)

type orderRequest struct {
	ReferenceID string `json:"reference_id"`
	Customer    struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		TaxID string `json:"tax_id" binding:"required"`
	} `json:"customer" binding:"required"`
	Items []struct {
		Name       string `json:"name" binding:"required"`
		Quantity   int    `json:"quantity" binding:"gt=0"`
		UnitAmount int64  `json:"unit_amount" binding:"gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
	QRCodes []struct {
		Amount struct {
			Value int64 `json:"value" binding:"gt=0"`
		} `json:"amount"`
	} `json:"qr_codes" binding:"required,min=1,dive"`
	NotificationURLs []string `json:"notification_urls"`
}

type qrCode struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Amount struct {
		Value int64 `json:"value"`
	} `json:"amount"`
}

type charge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type order struct {
	ID          string    `json:"id"`
	ReferenceID string    `json:"reference_id,omitempty"`
	QRCodes     []qrCode  `json:"qr_codes"`
	Charges     []charge  `json:"charges"`
	CreatedAt   time.Time `json:"created_at"`
}

func (o *order) snapshot() order {
	cp := *o
	cp.QRCodes = append([]qrCode(nil), o.QRCodes...)
	cp.Charges = append([]charge(nil), o.Charges...)
	return cp
}

type customerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj" binding:"required"`
}

type customer struct {
	Object  string `json:"object"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

type paymentRequest struct {
	Customer          string          `json:"customer" binding:"required"`
	BillingType       string          `json:"billingType" binding:"required"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate" binding:"required"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
}

type payment struct {
	Object            string          `json:"object"`
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	Status            string          `json:"status"`
	DueDate           string          `json:"dueDate"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	payload           string
}

// Server keeps every order, customer and payment in memory.
type Server struct {
	mu        sync.Mutex
	orders    map[string]*order
	customers map[string]customer
	payments  map[string]*payment
	newID     func() string
	now       func() time.Time
}

func New() *Server {
	return &Server{
		orders:    make(map[string]*order),
		customers: make(map[string]customer),
		payments:  make(map[string]*payment),
		newID:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		now:       time.Now,
	}
}

// Register mounts the PagSeguro routes, the Asaas routes and the sandbox
// control route on r.
func (s *Server) Register(r gin.IRouter) {
	pagSeguro := r.Group("/orders", requireBearer)
	pagSeguro.POST("", s.createOrder)
	pagSeguro.GET("/:id", s.getOrder)

	asaas := r.Group("", requireAccessToken)
	asaas.POST("/customers", s.createCustomer)
	asaas.POST("/payments", s.createPayment)
	asaas.GET("/payments/:id", s.getPayment)
	asaas.GET("/payments/:id/pixQrCode", s.getPixQrCode)

	r.POST("/sandbox/pay/:id", s.pay)
}

func requireBearer(c *gin.Context) {
	if !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, pagSeguroError("UNAUTHORIZED", "Invalid credential. Review AUTHORIZATION header"))
		return
	}
	c.Next()
}

func requireAccessToken(c *gin.Context) {
	if c.GetHeader("access_token") == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, asaasError("invalid_access_token", "A chave de API fornecida é inválida"))
		return
	}
	c.Next()
}

func pagSeguroError(code, description string) gin.H {
	return gin.H{"error_messages": []gin.H{{"code": code, "description": description}}}
}

func asaasError(code, description string) gin.H {
	return gin.H{"errors": []gin.H{{"code": code, "description": description}}}
}

func (s *Server) createOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pagSeguroError("40002", err.Error()))
		return
	}

	s.mu.Lock()
	o := &order{
		ID:          "ORDE_" + s.newID(),
		ReferenceID: req.ReferenceID,
		Charges:     []charge{{ID: "CHAR_" + s.newID(), Status: StatusWaiting}},
		CreatedAt:   s.now().UTC(),
	}
	for _, q := range req.QRCodes {
		qr := qrCode{ID: "QRCO_" + s.newID(), Text: pixPayload(o.ID, q.Amount.Value)}
		qr.Amount.Value = q.Amount.Value
		o.QRCodes = append(o.QRCodes, qr)
	}
	s.orders[o.ID] = o
	resp := o.snapshot()
	s.mu.Unlock()

	slog.InfoContext(c.Request.Context(), "Sandbox order created", slog.String("orderId", o.ID))
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	var resp order
	if ok {
		resp = o.snapshot()
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, pagSeguroError("NOT_FOUND", "order not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, asaasError("invalid_customer", err.Error()))
		return
	}

	cus := customer{Object: "customer", ID: "cus_" + s.newID(), Name: req.Name, Email: req.Email, CpfCnpj: req.CpfCnpj}
	s.mu.Lock()
	s.customers[cus.ID] = cus
	s.mu.Unlock()

	c.JSON(http.StatusOK, cus)
}

func (s *Server) createPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, asaasError("invalid_payment", err.Error()))
		return
	}
	if !req.Value.IsPositive() {
		c.JSON(http.StatusBadRequest, asaasError("invalid_value", "O valor da cobrança deve ser maior que zero"))
		return
	}
	if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
		c.JSON(http.StatusBadRequest, asaasError("invalid_dueDate", "Data de vencimento inválida"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[req.Customer]; !ok {
		c.JSON(http.StatusBadRequest, asaasError("invalid_customer", "Cliente inexistente"))
		return
	}

	p := &payment{
		Object:            "payment",
		ID:                "pay_" + s.newID(),
		Customer:          req.Customer,
		BillingType:       req.BillingType,
		Value:             req.Value,
		Status:            StatusPending,
		DueDate:           req.DueDate,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}
	p.payload = pixPayload(p.ID, req.Value.Shift(2).IntPart())
	s.payments[p.ID] = p
	resp := *p

	slog.InfoContext(c.Request.Context(), "Sandbox payment created", slog.String("paymentId", p.ID))
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPayment(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.payments[c.Param("id")]
	var resp payment
	if ok {
		resp = *p
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, asaasError("not_found", "Cobrança não encontrada"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPixQrCode(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.payments[c.Param("id")]
	var payload string
	if ok {
		payload = p.payload
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, asaasError("not_found", "Cobrança não encontrada"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"encodedImage": "", "payload": payload, "expirationDate": s.now().Add(24 * time.Hour).Format(time.DateTime)})
}

// pay settles an order or payment by id, as if the payer had scanned the code.
func (s *Server) pay(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orders[id]; ok {
		for i := range o.Charges {
			o.Charges[i].Status = StatusPaid
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": StatusPaid})
		return
	}
	if p, ok := s.payments[id]; ok {
		p.Status = StatusReceived
		c.JSON(http.StatusOK, gin.H{"id": id, "status": StatusReceived})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "charge not found"})
}

func pixPayload(id string, cents int64) string {
	return fmt.Sprintf("00020101021226830014br.gov.bcb.pix2561sandbox/%s5204000053039865406%s5802BR6304", id, decimal.New(cents, -2).StringFixed(2))
}
