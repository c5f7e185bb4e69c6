package formats

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/meshlib/pkg/encoding"
)

// ErrNoTexture is returned when a material library names no diffuse map.
var ErrNoTexture = errors.New("material library has no map_Kd entry")

// TextureFromMTL returns the diffuse texture file (map_Kd) named by the
// material library at path, converted to UTF-8 with forward slashes.
func TextureFromMTL(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening material library: %w", err)
	}
	defer f.Close()

	scanner := newScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) >= 2 && fields[0] == "map_Kd" {
			return encoding.Name(fields[len(fields)-1]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading material library: %w", err)
	}
	return "", fmt.Errorf("%s: %w", path, ErrNoTexture)
}
