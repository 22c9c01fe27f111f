package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

var pageOpts = apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[PageRequest]()}

func TestPageHandler_Create(t *testing.T) {
	stub := &stubPageService{}
	h := NewPageHandler(stub)

	rec := route(t, "/pages", pageOpts, nil, h.Create, http.MethodPost, "/pages",
		`{"slug":"about-us","title":"About us","content":{"blocks":[]},"show_in_menu":true,"parent_id":3}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.created == nil || stub.created.ParentID == nil || *stub.created.ParentID != 3 {
		t.Fatalf("unexpected page %+v", stub.created)
	}
	if string(stub.created.Content) != `{"blocks":[]}` {
		t.Fatalf("content not kept: %s", stub.created.Content)
	}
}

func TestPageHandler_Create_InvalidSlug(t *testing.T) {
	h := NewPageHandler(&stubPageService{})

	rec := route(t, "/pages", pageOpts, nil, h.Create, http.MethodPost, "/pages", `{"slug":"About Us","title":"About"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body apihandler.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Errors["slug"]; !ok {
		t.Fatalf("expected slug error, got %v", body.Errors)
	}
}

func TestPageHandler_Create_ParentCycle(t *testing.T) {
	h := NewPageHandler(&stubPageService{createErr: domain.ErrParentCycle})

	rec := route(t, "/pages", pageOpts, nil, h.Create, http.MethodPost, "/pages", `{"slug":"menu","title":"Menu","parent_id":1}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body apihandler.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Errors["parent_id"]) == 0 {
		t.Fatalf("expected parent_id error, got %v", body.Errors)
	}
}

func TestPageHandler_Menu(t *testing.T) {
	stub := &stubPageService{}
	h := NewPageHandler(stub)

	rec := route(t, "/menu", apihandler.Options{}, nil, h.Menu, http.MethodGet, "/menu", "")
	if rec.Code != http.StatusOK || stub.placement != domain.PlacementMenu {
		t.Fatalf("expected default placement, got %d %q", rec.Code, stub.placement)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}

	rec = route(t, "/menu", apihandler.Options{}, nil, h.Menu, http.MethodGet, "/menu?placement=sidebar", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPageHandler_GetBySlug(t *testing.T) {
	h := NewPageHandler(&stubPageService{})

	if rec := route(t, "/slug/:slug", apihandler.Options{}, nil, h.GetBySlug, http.MethodGet, "/slug/about", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := route(t, "/slug/:slug", apihandler.Options{}, nil, h.GetBySlug, http.MethodGet, "/slug/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPageHandler_Delete_NotFound(t *testing.T) {
	h := NewPageHandler(&stubPageService{})

	rec := route(t, "/pages/:id", apihandler.Options{Method: http.MethodDelete}, nil, h.Delete, http.MethodDelete, "/pages/7", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
