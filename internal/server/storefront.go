package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
)

type parcelBody struct {
	ShipmentType int     `json:"shipment_type" binding:"min=0"`
	Dim1         float64 `json:"dim1" binding:"min=1"`
	Dim2         float64 `json:"dim2" binding:"min=1"`
	Dim3         float64 `json:"dim3" binding:"min=1"`
	Weight       float64 `json:"weight" binding:"min=0"`
}

type addressBody struct {
	ISOCode             string `json:"iso_code" binding:"required"`
	PostalCode          string `json:"postal_code" binding:"required"`
	City                string `json:"city" binding:"required"`
	StateOrProvinceCode string `json:"StateOrProvinceCode" binding:"required"`
}

func (a addressBody) address() paccofacile.Address {
	return paccofacile.Address{
		ISOCode:             a.ISOCode,
		PostalCode:          a.PostalCode,
		City:                a.City,
		StateOrProvinceCode: a.StateOrProvinceCode,
	}
}

type quoteBody struct {
	Item        parcelBody   `json:"item"`
	Destination addressBody  `json:"destination"`
	ServiceID   *int         `json:"service_id" binding:"required,min=0"`
	Pickup      *addressBody `json:"pickup" binding:"omitempty"`
}

func (s *Server) postQuote(c *gin.Context) {
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestWithValidation(c, err)
		return
	}

	parcel := paccofacile.Parcel{
		ShipmentType: body.Item.ShipmentType,
		Dim1:         body.Item.Dim1,
		Dim2:         body.Item.Dim2,
		Dim3:         body.Item.Dim3,
		Weight:       body.Item.Weight,
	}
	var pickup *paccofacile.Address
	if body.Pickup != nil {
		addr := body.Pickup.address()
		pickup = &addr
	}

	quote, err := s.provider.QuoteParcel(c.Request.Context(), parcel, body.Destination.address(), pickup, *body.ServiceID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type localityBody struct {
	ISOCode    string `json:"iso_code"`
	Search     string `json:"search"`
	PostalCode string `json:"postal_code"`
}

func (s *Server) postLocalityValidation(c *gin.Context) {
	var body localityBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	localities, err := s.provider.ValidateLocality(c.Request.Context(), paccofacile.LocalityRequest{
		ISOCode:    body.ISOCode,
		Search:     body.Search,
		PostalCode: body.PostalCode,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if localities == nil {
		localities = []paccofacile.LocalityMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"localities": localities})
}
