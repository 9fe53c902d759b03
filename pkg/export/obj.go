// Package export writes gathered surfaces to interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/brushmap/pkg/surface"
)

// WriteOBJ writes surfaces as Wavefront OBJ objects named name_N.
// Nil surfaces are skipped; face indices are rebased per object.
func WriteOBJ(w io.Writer, name string, surfaces []*surface.Arrays) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s: %d surfaces\n", name, len(surfaces))

	base := 1
	for i, s := range surfaces {
		if s == nil {
			continue
		}
		fmt.Fprintf(bw, "o %s_%d\n", name, i)
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
		}
		for _, n := range s.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
		}
		for _, uv := range s.UVs {
			fmt.Fprintf(bw, "vt %g %g\n", uv.X(), 0-uv.Y())
		}
		for t := 0; t+2 < len(s.Indices); t += 3 {
			a, b, c := s.Indices[t]+base, s.Indices[t+1]+base, s.Indices[t+2]+base
			fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
		base += len(s.Vertices)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing OBJ: %w", err)
	}
	return nil
}
