package mapping

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadhook/internal/engine/payload"
	"leadhook/internal/platform/models"
)

func doc(t *testing.T, s string) payload.Value {
	t.Helper()
	v, err := payload.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func fm(source, target string, required bool) *models.FieldMapping {
	return &models.FieldMapping{SourceField: source, TargetField: target, IsRequired: required, IsActive: true}
}

func withDefault(m *models.FieldMapping, value string) *models.FieldMapping {
	m.DefaultValue = &value
	return m
}

var endpointDefaults = Defaults{Status: "new", Priority: "Alta", Source: "facebook"}

func TestApply_SeedsDefaults(t *testing.T) {
	data, err := Apply(doc(t, `{"lead": {"name": "Ana"}}`), []*models.FieldMapping{fm("lead.name", "name", true)}, endpointDefaults)
	require.NoError(t, err)

	assert.Equal(t, "new", data[FieldStatus])
	assert.Equal(t, PriorityHigh, data[FieldPriority])
	assert.Equal(t, "facebook", data[FieldSource])
	assert.Equal(t, "Ana", data[FieldName])
}

func TestApply_BlankDefaults(t *testing.T) {
	data, err := Apply(doc(t, `{"n": "Ana"}`), []*models.FieldMapping{fm("n", "name", false)}, Defaults{})
	require.NoError(t, err)

	assert.Equal(t, "new", data[FieldStatus])
	assert.Equal(t, PriorityMedium, data[FieldPriority])
	assert.Equal(t, "webhook", data[FieldSource])
}

func TestApply_NoMappings(t *testing.T) {
	payloads := []string{`{}`, `{"lead": {"name": "x"}}`, `[1, 2]`, `"text"`}

	for _, p := range payloads {
		_, err := Apply(doc(t, p), nil, endpointDefaults)
		assert.ErrorIs(t, err, ErrNoMappingsConfigured)
	}

	inactive := fm("lead.name", "name", true)
	inactive.IsActive = false
	_, err := Apply(doc(t, `{"lead": {"name": "x"}}`), []*models.FieldMapping{inactive}, endpointDefaults)
	assert.ErrorIs(t, err, ErrNoMappingsConfigured)
}

func TestApply_FirstMissingRequiredWins(t *testing.T) {
	mappings := []*models.FieldMapping{
		fm("lead.email", "email", false),
		fm("lead.name", "name", true),
		fm("lead.phone", "phone", true),
	}

	_, err := Apply(doc(t, `{"lead": {}}`), mappings, endpointDefaults)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "lead.name", missing.Field)
}

func TestApply_RequiredSatisfiedByDefault(t *testing.T) {
	mappings := []*models.FieldMapping{
		withDefault(fm("lead.name", "name", true), "Unknown"),
		withDefault(fm("lead.source", "source", false), "landing-page"),
	}

	data, err := Apply(doc(t, `{"lead": {"name": null, "source": "  "}}`), mappings, endpointDefaults)
	require.NoError(t, err)

	assert.Equal(t, "Unknown", data[FieldName])
	assert.Equal(t, "landing-page", data[FieldSource])
}

func TestApply_EmptyDefaultIsNoDefault(t *testing.T) {
	_, err := Apply(doc(t, `{}`), []*models.FieldMapping{withDefault(fm("lead.name", "name", true), "")}, endpointDefaults)

	var missing *MissingFieldError
	assert.ErrorAs(t, err, &missing)
}

func TestApply_LastWriteWins(t *testing.T) {
	mappings := []*models.FieldMapping{
		fm("contact.first_name", "name", false),
		fm("contact.full_name", "name", false),
	}

	data, err := Apply(doc(t, `{"contact": {"first_name": "João", "full_name": "João Silva"}}`), mappings, endpointDefaults)
	require.NoError(t, err)
	assert.Equal(t, "João Silva", data[FieldName])

	data, err = Apply(doc(t, `{"contact": {"first_name": "João"}}`), mappings, endpointDefaults)
	require.NoError(t, err)
	assert.Equal(t, "João", data[FieldName], "absent later mapping must not clear an earlier value")
}

func TestApply_PriorityNormalized(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"p": "ALTA"}`, PriorityHigh},
		{`{"p": "baixo"}`, PriorityLow},
		{`{"p": 5}`, PriorityMedium},
		{`{"p": "whatever"}`, PriorityMedium},
		{`{}`, PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			data, err := Apply(doc(t, tt.payload), []*models.FieldMapping{fm("p", "priority", false)}, endpointDefaults)
			require.NoError(t, err)
			assert.Equal(t, tt.want, data[FieldPriority])
		})
	}
}

func TestApply_KeepsValueTypes(t *testing.T) {
	mappings := []*models.FieldMapping{
		fm("deal.amount", "value", false),
		fm("lead.tags", "tags", false),
		fm("lead.opt_in", "opt_in", false),
	}

	data, err := Apply(doc(t, `{"deal": {"amount": 1500.5}, "lead": {"tags": ["a", "b"], "opt_in": false}}`), mappings, endpointDefaults)
	require.NoError(t, err)

	assert.Equal(t, json.Number("1500.5"), data[FieldValue])
	assert.Equal(t, []any{"a", "b"}, data["tags"])
	assert.Equal(t, false, data["opt_in"])
}

func TestApply_ScenarioOptionalEmailAbsent(t *testing.T) {
	mappings := []*models.FieldMapping{
		fm("lead.name", "name", true),
		fm("lead.email", "email", false),
	}

	data, err := Apply(doc(t, `{"lead": {"name": "João Silva"}}`), mappings, endpointDefaults)
	require.NoError(t, err)

	assert.Equal(t, "João Silva", data[FieldName])
	_, hasEmail := data[FieldEmail]
	assert.False(t, hasEmail)
}

func TestLeadData_String(t *testing.T) {
	data := LeadData{
		FieldPhone: json.Number("5511999999999"),
		FieldEmail: "  ",
		FieldName:  map[string]any{"first": "x"},
	}

	phone, ok := data.String(FieldPhone)
	assert.True(t, ok)
	assert.Equal(t, "5511999999999", phone)

	_, ok = data.String(FieldEmail)
	assert.False(t, ok)
	_, ok = data.String(FieldName)
	assert.False(t, ok)

	assert.True(t, data.HasIdentity())
	assert.False(t, LeadData{FieldStatus: "new"}.HasIdentity())
}
