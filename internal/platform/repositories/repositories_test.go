package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"leadhook/internal/platform/database"
	"leadhook/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestEndpointRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)
	ctx := context.Background()

	ep := &models.Endpoint{
		TenantID:        "t1",
		Name:            "Facebook Ads",
		IsActive:        true,
		DefaultStatus:   "new",
		DefaultPriority: "medium",
		DefaultSource:   "facebook",
	}
	if err := repo.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ep.Token == "" || ep.ID == "" {
		t.Fatal("Expected generated id and token")
	}
	if ep.Mode != models.ModeMapping {
		t.Errorf("Expected default mode mapping, got %s", ep.Mode)
	}

	got, err := repo.GetByToken(ctx, ep.Token)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if got == nil || got.ID != ep.ID || got.DefaultSource != "facebook" || !got.IsActive {
		t.Errorf("Unexpected endpoint: %+v", got)
	}

	missing, err := repo.GetByToken(ctx, "whk_missing")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown token, got %+v, %v", missing, err)
	}

	other, err := repo.GetByID(ctx, "t2", ep.ID)
	if err != nil || other != nil {
		t.Errorf("Expected other tenant lookup to miss, got %+v, %v", other, err)
	}
}

func TestEndpointRepository_UpdateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)
	ctx := context.Background()

	ep := &models.Endpoint{TenantID: "t1", Name: "Site form", IsActive: true, DefaultPriority: "medium"}
	if err := repo.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ep.Mode = models.ModeActive
	ep.IsActive = false
	ep.PipelineID = strPtr("p1")
	if err := repo.Update(ctx, ep); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	list, err := repo.ListByTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("ListByTenant failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 endpoint, got %d", len(list))
	}
	if list[0].Mode != models.ModeActive || list[0].IsActive || list[0].PipelineID == nil || *list[0].PipelineID != "p1" {
		t.Errorf("Update not persisted: %+v", list[0])
	}
}

func TestEndpointRepository_IncrementStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)
	ctx := context.Background()

	ep := &models.Endpoint{TenantID: "t1", Name: "x", IsActive: true, DefaultPriority: "low"}
	if err := repo.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, ok := range []bool{true, true, false} {
		if err := repo.IncrementStats(ctx, ep.ID, ok); err != nil {
			t.Fatalf("IncrementStats failed: %v", err)
		}
	}

	got, _ := repo.GetByToken(ctx, ep.Token)
	if got.TotalRequests != 3 || got.SuccessfulRequests != 2 || got.FailedRequests != 1 {
		t.Errorf("Unexpected counters: total=%d ok=%d failed=%d", got.TotalRequests, got.SuccessfulRequests, got.FailedRequests)
	}
	if got.LastRequestAt == nil {
		t.Error("Expected last_request_at to be set")
	}
}

func TestEndpointRepository_GetDetail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)
	ctx := context.Background()

	ep := &models.Endpoint{TenantID: "t1", Name: "x", IsActive: true, DefaultPriority: "low", PipelineID: strPtr("p1")}
	if err := repo.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	now := time.Now().Unix()
	for _, c := range []struct {
		id, pipeline string
		position     int
	}{{"col_b", "p1", 2}, {"col_a", "p1", 1}, {"col_other", "p2", 0}} {
		if _, err := db.Exec(`INSERT INTO pipeline_columns (id, pipeline_id, name, position, created_at) VALUES (?, ?, ?, ?, ?)`,
			c.id, c.pipeline, c.id, c.position, now); err != nil {
			t.Fatalf("insert column: %v", err)
		}
	}

	detail, err := repo.GetDetail(ctx, ep.ID)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}
	if len(detail.Columns) != 2 {
		t.Fatalf("Expected 2 columns, got %d", len(detail.Columns))
	}
	if detail.Columns[0].ID != "col_b" || detail.Columns[1].ID != "col_a" {
		t.Errorf("Expected insertion order, got %s, %s", detail.Columns[0].ID, detail.Columns[1].ID)
	}
}

func TestEndpointRepository_ColumnInPipeline(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO pipeline_columns (id, pipeline_id, name, position, created_at) VALUES ('col_a', 'p1', 'A', 0, 1)`); err != nil {
		t.Fatalf("insert column: %v", err)
	}

	tests := []struct {
		pipeline, column string
		want             bool
	}{
		{"p1", "col_a", true},
		{"p2", "col_a", false},
		{"p1", "col_missing", false},
	}

	for _, tt := range tests {
		got, err := repo.ColumnInPipeline(ctx, tt.pipeline, tt.column)
		if err != nil {
			t.Fatalf("ColumnInPipeline failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("ColumnInPipeline(%q, %q) = %v, want %v", tt.pipeline, tt.column, got, tt.want)
		}
	}
}

func TestMappingRepository_ReplaceAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	endpoints := NewEndpointRepository(db)
	repo := NewMappingRepository(db)

	ep := &models.Endpoint{TenantID: "t1", Name: "x", IsActive: true, DefaultPriority: "low"}
	if err := endpoints.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.Replace(ctx, ep.ID, []*models.FieldMapping{
		{SourceField: "lead.name", TargetField: "name", IsRequired: true, IsActive: true},
		{SourceField: "lead.tier", TargetField: "priority", IsActive: false},
		{SourceField: "utm", TargetField: "source", DefaultValue: strPtr("ads"), IsActive: true},
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	active, err := repo.ListActive(ctx, ep.ID)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("Expected 2 active mappings, got %d", len(active))
	}
	if active[0].SourceField != "lead.name" || !active[0].IsRequired {
		t.Errorf("Unexpected first mapping: %+v", active[0])
	}
	if active[1].DefaultValue == nil || *active[1].DefaultValue != "ads" {
		t.Errorf("Expected default value ads, got %v", active[1].DefaultValue)
	}

	if err := repo.Replace(ctx, ep.ID, []*models.FieldMapping{{SourceField: "email", TargetField: "email", IsActive: true}}); err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}
	all, _ := repo.List(ctx, ep.ID)
	if len(all) != 1 || all[0].Position != 0 {
		t.Errorf("Expected mappings replaced, got %+v", all)
	}
}

func TestSampleRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	endpoints := NewEndpointRepository(db)
	repo := NewSampleRepository(db)

	ep := &models.Endpoint{TenantID: "t1", Name: "x", IsActive: true, DefaultPriority: "low"}
	if err := endpoints.Create(ctx, ep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if s, err := repo.Get(ctx, ep.ID); err != nil || s != nil {
		t.Fatalf("Expected no sample yet, got %+v, %v", s, err)
	}

	for _, body := range []string{`{"a": 1}`, `{"b": {"c": 2}}`} {
		if err := repo.Upsert(ctx, &models.SampleData{EndpointID: ep.ID, Payload: []byte(body), DetectedFields: []string{"x"}}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	s, err := repo.Get(ctx, ep.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(s.Payload) != `{"b": {"c": 2}}` {
		t.Errorf("Expected latest payload, got %s", s.Payload)
	}
}

func TestRequestRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewRequestRepository(db)

	req := &models.WebhookRequest{
		EndpointID: "ep1",
		TenantID:   "t1",
		Payload:    []byte(`{"lead": {"name": "x"}}`),
		Headers:    map[string]string{"Content-Type": "application/json"},
		SourceIP:   "10.0.0.1",
	}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Finish(ctx, req.ID, models.RequestOutcome{Status: models.RequestSuccess, LeadID: "ld_1", DurationMS: 12}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	list, total, err := repo.ListByEndpoint(ctx, "ep1", 10, 0)
	if err != nil {
		t.Fatalf("ListByEndpoint failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("Expected 1 request, got total=%d len=%d", total, len(list))
	}
	got := list[0]
	if got.Status != models.RequestSuccess || got.LeadID == nil || *got.LeadID != "ld_1" {
		t.Errorf("Unexpected request: %+v", got)
	}
	if got.ErrorMessage != nil {
		t.Errorf("Expected no error message, got %q", *got.ErrorMessage)
	}
	if got.Headers["Content-Type"] != "application/json" {
		t.Errorf("Headers not persisted: %v", got.Headers)
	}
}

func TestRequestRepository_FailStaleAndPrune(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewRequestRepository(db)

	old := time.Now().Add(-2 * time.Hour).Unix()
	for _, row := range []struct {
		id, status string
		created    int64
	}{
		{"req_stale", "processing", old},
		{"req_old_done", "success", old},
		{"req_fresh", "processing", time.Now().Unix()},
	} {
		if _, err := db.Exec(`INSERT INTO webhook_requests (id, endpoint_id, tenant_id, status, payload, created_at) VALUES (?, 'ep1', 't1', ?, '{}', ?)`,
			row.id, row.status, row.created); err != nil {
			t.Fatalf("insert request: %v", err)
		}
	}

	cutoff := time.Now().Add(-time.Hour).Unix()
	failed, err := repo.FailStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("FailStale failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("Expected 1 stale request, got %d", failed)
	}

	pruned, err := repo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("Expected 2 pruned requests, got %d", pruned)
	}

	var remaining int
	db.QueryRow(`SELECT COUNT(*) FROM webhook_requests`).Scan(&remaining)
	if remaining != 1 {
		t.Errorf("Expected 1 remaining request, got %d", remaining)
	}
}

func TestContactRepository_Find(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewContactRepository(db)

	now := time.Now().Unix()
	contacts := []*models.Contact{
		{ID: "ct_1", TenantID: "t1", Name: "Ana", Phone: "5511", Source: "webhook", CreatedAt: now - 10, UpdatedAt: now},
		{ID: "ct_2", TenantID: "t1", Name: "Ana 2", Phone: "5511", Email: "ana@example.com", Source: "webhook", CreatedAt: now, UpdatedAt: now},
		{ID: "ct_3", TenantID: "t2", Name: "Bo", Email: "bo@example.com", Source: "webhook", CreatedAt: now, UpdatedAt: now},
	}
	for _, c := range contacts {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	id, err := repo.FindByPhone(ctx, "t1", "5511")
	if err != nil || id != "ct_1" {
		t.Errorf("FindByPhone = %q, %v; want ct_1", id, err)
	}
	id, _ = repo.FindByEmail(ctx, "t1", "ana@example.com")
	if id != "ct_2" {
		t.Errorf("FindByEmail = %q; want ct_2", id)
	}
	id, _ = repo.FindByEmail(ctx, "t1", "bo@example.com")
	if id != "" {
		t.Errorf("Expected tenant isolation, got %q", id)
	}

	c, err := repo.GetByID(ctx, "ct_1")
	if err != nil || c == nil || c.Email != "" || c.Phone != "5511" {
		t.Errorf("GetByID = %+v, %v", c, err)
	}
}

func TestLeadRepository_CreateAndMove(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(db)

	value := 1500.5
	lead := &models.Lead{
		TenantID:     "t1",
		UserID:       "usr_1",
		ContactID:    strPtr("ct_1"),
		Name:         "João Silva",
		Email:        "joao@example.com",
		Value:        &value,
		Status:       "new",
		Priority:     "high",
		Source:       "facebook",
		CustomFields: map[string]any{"campaign": "spring"},
	}
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO pipeline_columns (id, pipeline_id, name, position, created_at) VALUES ('col_1', 'p1', 'New', 0, 0)`); err != nil {
		t.Fatalf("insert column: %v", err)
	}
	if err := repo.MoveToColumn(ctx, lead.ID, "col_1"); err != nil {
		t.Fatalf("MoveToColumn failed: %v", err)
	}

	got, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ColumnID == nil || *got.ColumnID != "col_1" || got.PipelineID == nil || *got.PipelineID != "p1" {
		t.Errorf("Lead not placed: %+v", got)
	}
	if got.Value == nil || *got.Value != 1500.5 {
		t.Errorf("Expected value 1500.5, got %v", got.Value)
	}
	if got.CustomFields["campaign"] != "spring" {
		t.Errorf("Expected custom field, got %v", got.CustomFields)
	}

	badPriority := &models.Lead{TenantID: "t1", UserID: "u", Name: "x", Status: "new", Priority: "urgent", Source: "webhook"}
	if err := repo.Create(ctx, badPriority); err == nil {
		t.Error("Expected priority constraint violation")
	}
}

func TestUserRepository_FindAdminUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	now := time.Now().Unix()
	users := []*models.User{
		{ID: "u_member", TenantID: "t1", Email: "m@example.com", Role: "member", CreatedAt: now - 100},
		{ID: "u_owner", TenantID: "t1", Email: "o@example.com", Role: "owner", CreatedAt: now - 50},
		{ID: "u_admin", TenantID: "t1", Email: "a@example.com", Role: "admin", CreatedAt: now},
		{ID: "u_other", TenantID: "t2", Email: "x@example.com", Role: "member", CreatedAt: now},
	}
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	admin, err := repo.FindAdminUser(ctx, "t1")
	if err != nil || admin == nil || admin.ID != "u_owner" {
		t.Errorf("FindAdminUser(t1) = %+v, %v; want u_owner", admin, err)
	}

	none, err := repo.FindAdminUser(ctx, "t2")
	if err != nil || none != nil {
		t.Errorf("FindAdminUser(t2) = %+v, %v; want nil", none, err)
	}
}

func TestRequestRepository_FailStale_Mock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE webhook_requests").
		WithArgs(sqlmock.AnyArg(), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewRequestRepository(db).FailStale(context.Background(), 100)
	if err != nil {
		t.Fatalf("FailStale failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
