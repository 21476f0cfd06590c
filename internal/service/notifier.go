package service

import (
	"encoding/json"
	"log"

	"solicitudes/internal/model"
	ws "solicitudes/internal/websocket"
)

// Notifier is the notification dispatcher boundary. The lifecycle service is
// its only caller; handlers never dispatch notifications directly. The mail
// transport itself is an external collaborator behind this interface.
type Notifier interface {
	RequestSubmitted(req *model.Request, approvers []model.Participant)
	RequestDecided(req *model.Request) // approval or rejection notice to the owner
	ReminderRequested(req *model.Request, approvers []model.Participant)
}

// LifecycleEvent is the payload broadcast to connected clients
type LifecycleEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// hubNotifier broadcasts lifecycle events over the websocket hub and logs the
// outbound notices that the mail collaborator would send.
type hubNotifier struct {
	hub *ws.Hub
}

func NewHubNotifier(hub *ws.Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) broadcast(event string, req *model.Request) {
	if n.hub == nil {
		return
	}
	payload, err := json.Marshal(LifecycleEvent{
		Event: event,
		Data: map[string]interface{}{
			"request_id": req.ID.String(),
			"kind":       req.Kind,
			"code":       req.Code,
			"state":      req.ApprovalState,
			"activity":   req.ActivityState,
		},
	})
	if err != nil {
		return
	}
	select {
	case n.hub.Broadcast <- payload:
	default:
		// Never block a transition on slow websocket consumers
	}
}

func (n *hubNotifier) RequestSubmitted(req *model.Request, approvers []model.Participant) {
	n.broadcast("request_submitted", req)
	for _, p := range approvers {
		if p.Role == model.RoleApprover {
			log.Printf("notify: approval requested for %s from participant %s", req.Code, p.UserID)
		}
	}
}

func (n *hubNotifier) RequestDecided(req *model.Request) {
	n.broadcast("request_decided", req)
	log.Printf("notify: request %s decided (%s), owner %s", req.Code, req.ApprovalState, req.OwnerUserID)
}

func (n *hubNotifier) ReminderRequested(req *model.Request, approvers []model.Participant) {
	n.broadcast("request_reminder", req)
	for _, p := range approvers {
		if p.Role == model.RoleApprover && p.ResponseState == model.ResponsePending {
			log.Printf("notify: reminder for %s to participant %s", req.Code, p.UserID)
		}
	}
}
