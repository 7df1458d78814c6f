package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestFitParams_Unmarshal_PreservesDocumentOrder(t *testing.T) {
	doc := `
logM1: [1, 14.3, 13.8, 14.8, 0.3, LRG]
logM_cut: [0, 13.3, 13.0, 13.8, 0.05, LRG]
sigma: [2, 0.3, 0.1, 0.5, 0.05, LRG]
`
	var ps FitParams
	if err := yaml.Unmarshal([]byte(doc), &ps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, entry := range ps {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"logM1", "logM_cut", "sigma"}, names)
}

func TestFitParam_Unmarshal_AllSixFields(t *testing.T) {
	var p FitParam
	if err := yaml.Unmarshal([]byte(`[3, 0.97, 0.8, 1.0, 0.02, ELG]`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := FitParam{Index: 3, Mean: 0.97, Min: 0.8, Max: 1.0, Sigma: 0.02, Tracer: "ELG"}
	assert.Equal(t, want, p)
}

func TestFitParam_WrongArity_ReturnsError(t *testing.T) {
	var p FitParam
	err := yaml.Unmarshal([]byte(`[0, 13.3, 13.0, 13.8, 0.05]`), &p)
	if err == nil {
		t.Fatal("expected error for 5-element tuple, got nil")
	}
	if !strings.Contains(err.Error(), "want 6") {
		t.Errorf("error should state the expected arity: %v", err)
	}
}

func TestFitParam_MappingInsteadOfSequence_ReturnsError(t *testing.T) {
	var p FitParam
	err := yaml.Unmarshal([]byte("mean: 13.3\n"), &p)
	if err == nil {
		t.Fatal("expected error for mapping form, got nil")
	}
}

func TestFitParam_NonNumericElement_ReturnsError(t *testing.T) {
	var p FitParam
	err := yaml.Unmarshal([]byte(`[0, abc, 13.0, 13.8, 0.05, LRG]`), &p)
	if err == nil {
		t.Fatal("expected error for non-numeric mean, got nil")
	}
}

func TestFitParams_Marshal_FlowStyleTuples(t *testing.T) {
	ps := FitParams{
		{Name: "logM_cut", Param: FitParam{Index: 0, Mean: 13.3, Min: 13.1, Max: 13.8, Sigma: 0.05, Tracer: "LRG"}},
	}
	data, err := yaml.Marshal(ps)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "logM_cut: [0, 13.3, 13.1, 13.8, 0.05, LRG]") {
		t.Errorf("tuple should render in flow style, got:\n%s", got)
	}
}

func TestFitParams_RoundTrip_ValuesAndOrder(t *testing.T) {
	orig := FitParams{
		{Name: "logM1", Param: FitParam{Index: 1, Mean: 14.3, Min: 13.8, Max: 14.8, Sigma: 0.3, Tracer: "LRG"}},
		{Name: "alpha", Param: FitParam{Index: 4, Mean: 1.0, Min: 0.5, Max: 1.5, Sigma: 0.1, Tracer: "QSO"}},
	}
	data, err := yaml.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var again FitParams
	if err := yaml.Unmarshal(data, &again); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	assert.Equal(t, orig, again)
}

func TestFitParams_Lookup(t *testing.T) {
	ps := FitParams{
		{Name: "logM_cut", Param: FitParam{Index: 0, Mean: 13.3, Min: 13.0, Max: 13.8, Sigma: 0.05, Tracer: "LRG"}},
	}
	p, ok := ps.Lookup("logM_cut")
	if !ok {
		t.Fatal("Lookup(logM_cut) not found")
	}
	if p.Index != 0 || p.Mean != 13.3 {
		t.Errorf("Lookup(logM_cut) = %+v", p)
	}
	if _, ok := ps.Lookup("absent"); ok {
		t.Error("Lookup(absent) found, want miss")
	}
}
