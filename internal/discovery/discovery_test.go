package discovery

import (
	"testing"

	"go.uber.org/zap"
)

func TestInstanceKey(t *testing.T) {
	r := &Registry{prefix: "/services/", logger: zap.NewNop()}
	got := r.key(Instance{Name: "estore-api", Host: "10.0.0.4", Port: "5000"})
	if got != "/services/estore-api/10.0.0.4:5000" {
		t.Fatalf("unexpected key %q", got)
	}
}
