package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tournevent/paccofacile/internal/store"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
)

// Optional capabilities a registered provider may implement beyond
// fulfillment.Provider.
type (
	priceCalculator interface {
		CalculatePrice(ctx context.Context, serviceID int, fc *fulfillment.Context) (*fulfillment.CalculatedPrice, error)
	}

	optionValidator interface {
		Validate(ctx context.Context, option fulfillment.Option, fc *fulfillment.Context) (*paccofacile.ValidatedData, error)
	}

	fulfillmentCreator interface {
		CreateFulfillment(ctx context.Context, req *paccofacile.CreateRequest) (*paccofacile.CreateResult, error)
	}
)

func (s *Server) resolveProvider(c *gin.Context) (fulfillment.Provider, bool) {
	provider, err := s.registry.Get(c.Param("provider"))
	if err != nil {
		s.abortWithError(c, err)
		return nil, false
	}
	return provider, true
}

func unsupported(c *gin.Context, operation string) {
	badRequest(c, "provider "+c.Param("provider")+" does not support "+operation)
}

func (s *Server) listOptions(c *gin.Context) {
	provider, ok := s.resolveProvider(c)
	if !ok {
		return
	}
	options, err := provider.ListFulfillmentOptions(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fulfillment_options": options,
		"can_calculate":       provider.CanCalculatePrice(),
	})
}

// listAllOptions merges the options of every registered provider. Providers
// that fail are reported under "errors"; the call fails only when none answer.
func (s *Server) listAllOptions(c *gin.Context) {
	options, errs := s.registry.ListAllOptions(c.Request.Context())
	if len(options) == 0 && len(errs) > 0 {
		s.abortWithError(c, errs[0])
		return
	}
	if options == nil {
		options = []fulfillment.Option{}
	}

	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"fulfillment_options": options,
		"errors":              messages,
	})
}

type optionContextBody struct {
	Option  fulfillment.Option  `json:"option"`
	Context fulfillment.Context `json:"context"`
}

func (s *Server) calculatePrice(c *gin.Context) {
	provider, ok := s.resolveProvider(c)
	if !ok {
		return
	}
	calc, ok := provider.(priceCalculator)
	if !ok || !provider.CanCalculatePrice() {
		unsupported(c, "price calculation")
		return
	}

	var body optionContextBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	price, err := calc.CalculatePrice(c.Request.Context(), body.Option.ServiceID, &body.Context)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (s *Server) validateOption(c *gin.Context) {
	provider, ok := s.resolveProvider(c)
	if !ok {
		return
	}
	v, ok := provider.(optionValidator)
	if !ok {
		unsupported(c, "option validation")
		return
	}

	var body optionContextBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	validated, err := v.Validate(c.Request.Context(), body.Option, &body.Context)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	data, err := validated.ToData()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

type createFulfillmentBody struct {
	ID    string                 `json:"id" binding:"required"`
	Data  fulfillment.Data       `json:"data" binding:"required"`
	Items []fulfillment.LineItem `json:"items"`
	Order *fulfillment.Order     `json:"order" binding:"required"`
}

func (s *Server) createFulfillment(c *gin.Context) {
	provider, ok := s.resolveProvider(c)
	if !ok {
		return
	}
	creator, ok := provider.(fulfillmentCreator)
	if !ok {
		unsupported(c, "fulfillment creation")
		return
	}

	var body createFulfillmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestWithValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	record, err := s.store.GetFulfillment(ctx, body.ID)
	if errors.Is(err, store.ErrNotFound) {
		record = &fulfillment.Record{ID: body.ID}
	} else if err != nil {
		s.abortWithError(c, err)
		return
	}
	record.OrderID = body.Order.ID
	record.ProviderID = provider.Identifier()

	result, err := creator.CreateFulfillment(ctx, &paccofacile.CreateRequest{
		Data:   body.Data,
		Items:  body.Items,
		Order:  body.Order,
		Record: record,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPurchase(string(result.Purchase.Status))
	}

	record.Data = result.Data
	if err := s.store.SaveFulfillment(ctx, record); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fulfillment": record,
		"shipment_id": result.ShipmentID,
		"purchase":    result.Purchase,
	})
}

func (s *Server) cancelFulfillment(c *gin.Context) {
	provider, ok := s.resolveProvider(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	record, err := s.store.GetFulfillment(ctx, c.Param("fulfillment_id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c, "Fulfillment not found")
		return
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if record.ProviderID != provider.Identifier() {
		badRequest(c, "fulfillment belongs to provider "+record.ProviderID)
		return
	}

	data, err := provider.CancelFulfillment(ctx, record.Data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	record.Data = data
	if err := s.store.SaveFulfillment(ctx, record); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfillment": record})
}
