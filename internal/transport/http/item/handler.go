package item

import (
	"net/http"
	"time"

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

var httpTracer = otel.Tracer("github.com/Additional-Code/gavel/transport/http/item")

// Handler exposes item lifecycle endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an item Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/items")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.DELETE("/:id", h.softDelete)
	e.GET("/users/:id/items", h.listByOwner)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name    string    `json:"name"`
		Price   int64     `json:"price"`
		EndTime time.Time `json:"end_time"`
		Image   string    `json:"image"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ownerID := c.Request().Header.Get("X-User-ID")
	if ownerID == "" {
		return b.WithError(errorbank.BadRequest("missing X-User-ID header")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.create", trace.WithAttributes(
		attribute.String("item.owner_id", ownerID),
	))
	defer span.End()

	item, err := h.svc.CreateItem(ctx, service.CreateItemInput{
		Name:    payload.Name,
		Price:   payload.Price,
		EndTime: payload.EndTime,
		OwnerID: ownerID,
		Image:   payload.Image,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(item)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "items.list")
	defer span.End()

	items, err := h.svc.ListActiveItems(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "items.getByID", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	detail, err := h.svc.GetItem(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := dto.ItemDetailResponse{ItemResponse: toDTO(&detail.Item)}
	if detail.HighestBid != nil {
		resp.HighestBid = &dto.BidResponse{
			ID:        detail.HighestBid.ID,
			ItemID:    detail.HighestBid.ItemID,
			BidderID:  detail.HighestBid.BidderID,
			Amount:    detail.HighestBid.Amount,
			Message:   detail.HighestBid.Message,
			CreatedAt: detail.HighestBid.CreatedAt,
		}
	}
	return b.WithData(resp).Build()
}

func (h *Handler) softDelete(c echo.Context) error {
	b := response.New(c)

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "items.softDelete", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	item, err := h.svc.SoftDeleteItem(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(item)).Build()
}

func (h *Handler) listByOwner(c echo.Context) error {
	b := response.New(c)

	ownerID := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "items.listByOwner", trace.WithAttributes(attribute.String("item.owner_id", ownerID)))
	defer span.End()

	items, err := h.svc.ListItemsByOwner(ctx, ownerID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(items)).Build()
}

func toDTO(item *entity.Item) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Status:    string(item.Status),
		OwnerID:   item.OwnerID,
		BuyerID:   item.BuyerID,
		Image:     item.Image,
		EndTime:   item.EndTime,
		CreatedAt: item.CreatedAt,
		Deleted:   item.Deleted,
	}
	if !item.DeletedAt.IsZero() {
		deletedAt := item.DeletedAt
		resp.DeletedAt = &deletedAt
	}
	return resp
}

func toDTOs(items []entity.Item) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out
}
