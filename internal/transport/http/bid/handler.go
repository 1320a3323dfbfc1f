package bid

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/gavel/internal/dto"
	"github.com/Additional-Code/gavel/internal/entity"
	"github.com/Additional-Code/gavel/internal/presentation/http/response"
	service "github.com/Additional-Code/gavel/internal/service/auction"
	"github.com/Additional-Code/gavel/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/gavel/transport/http/bid")

// Handler exposes bid endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a bid Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/items/:id/bids")
	g.POST("", h.place)
	g.GET("", h.list)
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Amount  int64  `json:"amount"`
		Message string `json:"message"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Amount <= 0 {
		return b.WithError(errorbank.BadRequest("amount must be a positive integer")).Build()
	}

	// The bidder identity comes from the authentication layer, never from
	// the request body.
	bidderID := c.Request().Header.Get("X-User-ID")
	if bidderID == "" {
		return b.WithError(errorbank.BadRequest("missing X-User-ID header")).Build()
	}

	itemID := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "bids.place", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Int64("bid.amount", payload.Amount),
	))
	defer span.End()

	placed, err := h.svc.PlaceBid(ctx, itemID, bidderID, payload.Amount, payload.Message)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.BidResponse{
		ID:         placed.ID,
		ItemID:     placed.ItemID,
		BidderID:   placed.BidderID,
		BidderName: placed.BidderName,
		Amount:     placed.Amount,
		Message:    placed.Message,
		CreatedAt:  placed.CreatedAt,
	}).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	itemID := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "bids.list", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	bids, err := h.svc.ListBids(ctx, itemID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(bids)).Build()
}

func toDTOs(bids []entity.Bid) []dto.BidResponse {
	out := make([]dto.BidResponse, 0, len(bids))
	for _, bd := range bids {
		out = append(out, dto.BidResponse{
			ID:        bd.ID,
			ItemID:    bd.ItemID,
			BidderID:  bd.BidderID,
			Amount:    bd.Amount,
			Message:   bd.Message,
			CreatedAt: bd.CreatedAt,
		})
	}
	return out
}
