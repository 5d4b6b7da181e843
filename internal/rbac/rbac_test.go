package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"hr", "exam:create", true},
		{"hr", "submission:grade", true},
		{"hr", "submission:delete", false},
		{"hr", "exam:delete", false},
		{"admin", "exam:delete", true},
		{"admin", "anything:at:all", true},
		{"", "exam:create", false},
		{"candidate", "exam:create", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerWildcardPrefix(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"submission:*"}})
	if !c.Has("grader", "submission:grade") || !c.Has("grader", "submission:view") {
		t.Fatal("prefix wildcard did not match")
	}
	if c.Has("grader", "exam:create") {
		t.Fatal("prefix wildcard matched foreign permission")
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("hr", "exam:delete", "exam:update") {
		t.Fatal("Any missed a granted permission")
	}
	if c.Any("hr", "exam:delete", "submission:delete") {
		t.Fatal("Any granted without any match")
	}
}

func TestContextRoundtrip(t *testing.T) {
	ctx := WithRole(WithSubject(context.Background(), "hr-1"), "hr")
	if RoleFromContext(ctx) != "hr" || SubjectFromContext(ctx) != "hr-1" {
		t.Fatalf("context values lost: role=%q sub=%q", RoleFromContext(ctx), SubjectFromContext(ctx))
	}
	if RoleFromContext(context.Background()) != "" {
		t.Fatal("empty context leaked a role")
	}
}

func TestRequireMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("exam:create")(ok)

	cases := []struct {
		name string
		role string
		want int
	}{
		{"granted", "hr", http.StatusNoContent},
		{"admin wildcard", "admin", http.StatusNoContent},
		{"denied", "candidate", http.StatusForbidden},
		{"anonymous", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.role != "" {
				req = req.WithContext(WithRole(req.Context(), tc.role))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireAnyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAny("exam:delete", "exam:update")(ok)

	req := httptest.NewRequest(http.MethodPost, "/", nil).
		WithContext(WithRole(context.Background(), "hr"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("hr with exam:update got %d", rec.Code)
	}
}
