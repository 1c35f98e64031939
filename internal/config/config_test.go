package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_MatchesDocumentedKnobs(t *testing.T) {
	d := Default()
	if d.MaxVarLengthDepth != 15 {
		t.Errorf("MaxVarLengthDepth = %d, want 15", d.MaxVarLengthDepth)
	}
	if d.QueryTimeout != 0 {
		t.Errorf("QueryTimeout = %v, want 0", d.QueryTimeout)
	}
	if d.ReturnColumnOrder != "insertion" {
		t.Errorf("ReturnColumnOrder = %q, want \"insertion\"", d.ReturnColumnOrder)
	}
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly, got %v", err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cyquery.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}
	return path
}

func TestLoad_OverlaysOnlySetFieldsOntoDefaults(t *testing.T) {
	path := writeConfig(t, "max_var_length_depth: 30\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxVarLengthDepth != 30 {
		t.Errorf("MaxVarLengthDepth = %d, want 30", cfg.MaxVarLengthDepth)
	}
	if cfg.ReturnColumnOrder != "insertion" {
		t.Errorf("ReturnColumnOrder should keep its default, got %q", cfg.ReturnColumnOrder)
	}
}

func TestLoad_ParsesQueryTimeoutDuration(t *testing.T) {
	path := writeConfig(t, "query_timeout: 5s\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.QueryTimeout)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}

func TestLoad_MalformedYAMLErrors(t *testing.T) {
	path := writeConfig(t, "max_var_length_depth: [this, is, a, list]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a type-mismatched config file")
	}
}

func TestLoad_RejectsNonPositiveMaxVarLengthDepth(t *testing.T) {
	path := writeConfig(t, "max_var_length_depth: 0\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected Validate to reject a non-positive max_var_length_depth")
	}
}

func TestLoad_RejectsMutatedReturnColumnOrder(t *testing.T) {
	path := writeConfig(t, "return_column_order: reverse\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected Validate to reject a non-\"insertion\" return_column_order")
	}
	var ice *InvalidConfigError
	if e, ok := err.(*InvalidConfigError); ok {
		ice = e
	} else {
		t.Fatalf("expected *InvalidConfigError, got %T", err)
	}
	if ice.Field != "return_column_order" {
		t.Errorf("InvalidConfigError.Field = %q, want %q", ice.Field, "return_column_order")
	}
}

func TestValidate_RejectsNegativeMaxVarLengthDepth(t *testing.T) {
	c := Default()
	c.MaxVarLengthDepth = -1
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject a negative max_var_length_depth")
	}
}

func TestInvalidConfigError_MessageNamesTheField(t *testing.T) {
	err := &InvalidConfigError{Field: "max_var_length_depth", Message: "must be positive"}
	want := "max_var_length_depth: must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
