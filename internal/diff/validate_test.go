package diff_test

import (
	"testing"

	"github.com/mocukie/imgdiff/internal/diff"
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	base := diff.Geometry{Width: 4, Height: 3, Format: imagex.RGB(8)}

	tests := []struct {
		name  string
		right diff.Geometry
		want  error
	}{
		{line(), base, nil},
		{line(), diff.Geometry{Width: 5, Height: 3, Format: imagex.RGB(8)}, diff.ErrDimensionMismatch},
		{line(), diff.Geometry{Width: 4, Height: 2, Format: imagex.RGB(8)}, diff.ErrDimensionMismatch},
		{line(), diff.Geometry{Width: 4, Height: 3, Format: imagex.RGBA(8)}, diff.ErrFormatMismatch},
		{line(), diff.Geometry{Width: 4, Height: 3, Format: imagex.RGB(16)}, diff.ErrFormatMismatch},
		// geometry is checked before format
		{line(), diff.Geometry{Width: 1, Height: 3, Format: imagex.Gray(8)}, diff.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := diff.Validate(base, tt.right)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(diff.Validate(tt.right, base), tt.want) {
				t.Errorf("expected %v with sides swapped", tt.want)
			}
		})
	}
}
