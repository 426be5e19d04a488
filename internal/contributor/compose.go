package contributor

import (
	"fmt"

	"github.com/vk/bufcompose/internal/aggregate"
)

const (
	KeyStructure     = "COMPOSITESTRUCT"
	KeyElementCount  = "MAXPARTICLECOUNT"
	KeyEmitterOffset = "EMITTEROFFSET"
)

// Compose builds the output of contributor id from a system snapshot.
// emitCount is the contributor's own element count; the offset line is only
// added when it is positive.
func Compose(snap aggregate.Snapshot, id string, emitCount int) []string {
	out := []string{
		KeyStructure + "=" + snap.Structure,
		fmt.Sprintf("%s=%d", KeyElementCount, snap.ElementCount),
	}
	for _, d := range snap.Defines {
		if d != "" {
			out = append(out, d)
		}
	}
	if emitCount > 0 {
		out = append(out, fmt.Sprintf("%s=%d", KeyEmitterOffset, snap.Offset(id)))
	}
	return out
}
