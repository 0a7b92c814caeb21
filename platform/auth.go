package platform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/viant/scy/cred/secret"
)

// ResolveToken resolves the API bearer token. Order: explicit value, scy
// secret resource, ESMTUNE_PLATFORM_TOKEN environment variable.
func ResolveToken(ctx context.Context, token, secretRef string) (string, error) {
	if strings.TrimSpace(token) != "" {
		return token, nil
	}
	if secretRef = strings.TrimSpace(secretRef); secretRef != "" {
		svc := secret.New()
		sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
		if err != nil {
			return "", fmt.Errorf("lookup secret %q: %w", secretRef, err)
		}
		return strings.TrimSpace(sec.String()), nil
	}
	return os.Getenv("ESMTUNE_PLATFORM_TOKEN"), nil
}
