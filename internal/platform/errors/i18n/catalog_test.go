package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestFormatTemplateExecutionErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ call .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ call .Name }}" {
		t.Fatal("expected template fallback on execute error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}

func TestBaseCatalogMessages(t *testing.T) {
	cat := GetCatalog("")
	tests := []struct {
		code     Code
		metadata map[string]string
		want     string
	}{
		{CodeTickUnreachable, map[string]string{"Target": "10", "Current": "20"}, "Tick 10 cannot be reached from tick 20"},
		{CodeInvalidArgument, map[string]string{"Field": "page_token", "Reason": "not a number"}, "Invalid page_token: not a number"},
		{CodeInvalidFilter, map[string]string{"Filter": "name =", "Reason": "unexpected EOF"}, `Invalid filter "name =": unexpected EOF`},
		{CodeMalformedInput, nil, "The recording could not be read"},
		{CodeNotFound, map[string]string{"Name": "recording \"a\""}, `recording "a" was not found`},
		{CodeNotFound, nil, "Not found"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := cat.Format(tt.code, tt.metadata); got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}
