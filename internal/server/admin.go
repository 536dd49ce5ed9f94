package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tournevent/paccofacile/internal/store"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
)

func (s *Server) getAccount(c *gin.Context) {
	account, err := s.provider.Account(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) getCredit(c *gin.Context) {
	credit, err := s.provider.Credit(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

type autoPaymentSettings struct {
	AutoPayment *bool `json:"auto_payment" binding:"required"`
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.store.ListSettings(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if settings == nil {
		settings = map[string]string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"auto_payment": settings[paccofacile.SettingAutoPayment] == "true",
		"settings":     settings,
	})
}

func (s *Server) postSettings(c *gin.Context) {
	var body autoPaymentSettings
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestWithValidation(c, err)
		return
	}

	value := strconv.FormatBool(*body.AutoPayment)
	if err := s.store.SetSetting(c.Request.Context(), paccofacile.SettingAutoPayment, value); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "input": body})
}

type settingBody struct {
	Value *string `json:"value" binding:"required"`
}

func (s *Server) getSetting(c *gin.Context) {
	name := c.Param("name")
	value, ok, err := s.store.GetSetting(c.Request.Context(), name)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"name": name, "value": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
}

func (s *Server) postSetting(c *gin.Context) {
	name := c.Param("name")
	var body settingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestWithValidation(c, err)
		return
	}
	if err := s.store.SetSetting(c.Request.Context(), name, *body.Value); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": gin.H{"name": name, "value": *body.Value}})
}

type documentResponse struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Type    string `json:"type"`
}

func (s *Server) getDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")
	fulfillmentID := c.Param("fulfillment_id")

	record, err := s.store.GetFulfillment(ctx, fulfillmentID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && record.OrderID != orderID) {
		notFound(c, "Fulfillment not found")
		return
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if record.ProviderID != paccofacile.ProviderID {
		badRequest(c, "This fulfillment is not from PaccoFacile provider")
		return
	}

	provider, err := s.registry.Get(record.ProviderID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	docs, err := provider.RetrieveDocuments(ctx, record.Data, c.Query("type"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{Content: d.Content, Format: d.Format, Type: d.Label})
	}
	c.JSON(http.StatusOK, gin.H{
		"fulfillment_id": fulfillmentID,
		"order_id":       orderID,
		"documents":      out,
	})
}

type shippingMethodBody struct {
	Data map[string]any `json:"data" binding:"required"`
}

func (s *Server) postShippingMethodData(c *gin.Context) {
	orderID := c.Param("id")
	methodID := c.Param("methodId")

	var body shippingMethodBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Missing required parameters: order ID, shipping method ID, or data")
		return
	}

	if err := s.store.SaveShippingMethodData(c.Request.Context(), orderID, methodID, body.Data); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"shipping_method": gin.H{
			"id":       methodID,
			"order_id": orderID,
			"data":     body.Data,
		},
	})
}
