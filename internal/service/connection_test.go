package service

import (
	"context"
	"errors"
	"testing"

	"beeja-hrm-backend/internal/model"
)

func TestCreateRequestConflicts(t *testing.T) {
	fx := newChatFixture()
	ctx := context.Background()

	// An open pair never needs a request.
	if _, err := fx.connSvc.Create(ctx, identity(employeeE), employeeF.ID, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("request for an allowed pair should conflict, got %v", err)
	}

	// Elevated requesters never need one either.
	if _, err := fx.connSvc.Create(ctx, identity(adminA), employeeE.ID, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("request from an elevated role should conflict, got %v", err)
	}

	if _, err := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, "please"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	// One pending per unordered pair.
	if _, err := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, "again"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate pending should conflict, got %v", err)
	}
}

func TestRespondAuthorization(t *testing.T) {
	fx := newChatFixture()
	ctx := context.Background()

	req, err := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the addressed recipient may respond.
	if _, err := fx.connSvc.Respond(ctx, identity(vpV), req.ID, "approve", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other elevated user responding should be Forbidden, got %v", err)
	}
	if _, err := fx.connSvc.Respond(ctx, identity(employeeE), req.ID, "approve", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester responding should be Forbidden, got %v", err)
	}

	if _, err := fx.connSvc.Respond(ctx, identity(adminA), "missing-id", "approve", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown request should be NotFound, got %v", err)
	}

	resolved, err := fx.connSvc.Respond(ctx, identity(adminA), req.ID, "approve", "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if resolved.Status != model.ConnectionApproved || resolved.RespondedAt == nil {
		t.Fatalf("approval not recorded: %+v", resolved)
	}

	// Terminal states stay terminal.
	if _, err := fx.connSvc.Respond(ctx, identity(adminA), req.ID, "reject", ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("responding twice should be InvalidState, got %v", err)
	}
}

func TestApprovalCreatesSessionLazily(t *testing.T) {
	fx := newChatFixture()
	ctx := context.Background()

	req, _ := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, "")
	if _, err := fx.connSvc.Respond(ctx, identity(adminA), req.ID, "approve", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	session, err := fx.chats.FindSessionByPair(ctx, employeeE.ID, adminA.ID)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if session == nil {
		t.Fatal("approval should have created the pair's session")
	}
}

func TestRespondEventsReachRequester(t *testing.T) {
	fx := newChatFixture()
	ctx := context.Background()

	req, _ := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, "")

	created := fx.hub.byType(model.EventNewConnectionRequest)
	if len(created) != 1 || created[0].userID != adminA.ID {
		t.Fatalf("new_connection_request should target the recipient, got %+v", created)
	}

	if _, err := fx.connSvc.Respond(ctx, identity(adminA), req.ID, "reject", "busy"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	responded := fx.hub.byType(model.EventConnectionRequestResponded)
	if len(responded) != 1 || responded[0].userID != employeeE.ID {
		t.Fatalf("connection_request_responded should target the requester, got %+v", responded)
	}
}

func TestListPendingElevatedOnly(t *testing.T) {
	fx := newChatFixture()
	ctx := context.Background()

	if _, err := fx.connSvc.ListPending(ctx, identity(employeeE)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-elevated listing should be Forbidden, got %v", err)
	}

	if _, err := fx.connSvc.Create(ctx, identity(employeeE), adminA.ID, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	reqs, err := fx.connSvc.ListPending(ctx, identity(adminA))
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(reqs) != 1 || reqs[0].RequesterID != employeeE.ID {
		t.Fatalf("unexpected pending list: %+v", reqs)
	}

	// The VP sees only their own requests.
	reqs, err = fx.connSvc.ListPending(ctx, identity(vpV))
	if err != nil {
		t.Fatalf("list pending for vp: %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("vp should have no pending requests, got %+v", reqs)
	}
}
