package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/eventmanager/internal/actorctx"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/lifecycle"
	"github.com/gin-gonic/gin"
)

// Lifecycle is the slice of lifecycle.Service the HTTP layer drives.
type Lifecycle interface {
	ResolveActor(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, req event.CreateEventRequest, actor user.User) (event.Event, error)
	Get(ctx context.Context, id string, actor user.User) (event.Event, error)
	List(ctx context.Context, filter event.ListFilter, actor user.User) ([]event.Event, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest, actor user.User) (event.Event, error)
	Delete(ctx context.Context, id string, actor user.User) error
	Publish(ctx context.Context, id string, actor user.User) (event.Event, error)
	AddAttendee(ctx context.Context, id, userID string, actor user.User) (lifecycle.AttendeeResult, error)
}

type CancelRequester interface {
	Request(ctx context.Context, id string, actor user.User) error
}

type EventsHandler struct {
	svc    Lifecycle
	cancel CancelRequester
}

func NewEventsHandler(svc Lifecycle, cancel CancelRequester) *EventsHandler {
	return &EventsHandler{svc: svc, cancel: cancel}
}

type addAttendeeRequest struct {
	UserID string `json:"userId" binding:"max=64"`
}

// actor resolves the caller set by the auth middleware; on failure the
// response is already written.
func (h *EventsHandler) actor(ctx *gin.Context) (user.User, bool) {
	email, ok := actorctx.EmailFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return user.User{}, false
	}

	u, err := h.svc.ResolveActor(ctx.Request.Context(), email)
	if err != nil {
		RespondAppError(ctx, err)
		return user.User{}, false
	}
	return u, true
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	e, err := h.svc.Create(ctx.Request.Context(), req, actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/events/"+e.ID)
	RespondEvent(ctx, http.StatusCreated, e)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var filter event.ListFilter

	if raw := strings.TrimSpace(ctx.Query("status")); raw != "" {
		st := event.Status(strings.ToUpper(raw))
		if !st.IsValid() {
			RespondBadRequest(ctx, "Invalid status filter", gin.H{"status": raw})
			return
		}
		filter.Status = &st
	}
	if cat := strings.TrimSpace(ctx.Query("category")); cat != "" {
		filter.CategoryCode = &cat
	}

	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	events, err := h.svc.List(ctx.Request.Context(), filter, actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": events,
		"count": len(events),
	})
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	e, err := h.svc.Get(ctx.Request.Context(), ctx.Param("id"), actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondEvent(ctx, http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	e, err := h.svc.Update(ctx.Request.Context(), ctx.Param("id"), req, actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondEvent(ctx, http.StatusOK, e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), ctx.Param("id"), actor); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *EventsHandler) PublishEvent(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	e, err := h.svc.Publish(ctx.Request.Context(), ctx.Param("id"), actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondEvent(ctx, http.StatusOK, e)
}

// AddAttendee answers 200 on registration and 409 with the same result body
// when a registration rule turns the attendee away.
func (h *EventsHandler) AddAttendee(ctx *gin.Context) {
	var req addAttendeeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	res, err := h.svc.AddAttendee(ctx.Request.Context(), ctx.Param("id"), req.UserID, actor)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	if !res.Success {
		ctx.JSON(http.StatusConflict, res)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// CancelEvent queues the cancellation; the worker applies it.
func (h *EventsHandler) CancelEvent(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if err := h.cancel.Request(ctx.Request.Context(), id, actor); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"eventId": id,
		"status":  "cancellation_requested",
	})
}
