package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/serrors"
)

func TestUprankRequestDTO_TargetLevel(t *testing.T) {
	cases := map[string]struct {
		dto     UprankRequestDTO
		want    int
		wantErr bool
	}{
		"level only":       {dto: UprankRequestDTO{TargetLevel: 3}, want: 3},
		"rank name":        {dto: UprankRequestDTO{TargetRank: " Junior Officer "}, want: 2},
		"case-insensitive": {dto: UprankRequestDTO{TargetRank: "captain"}, want: 12},
		"both agree":       {dto: UprankRequestDTO{TargetLevel: 2, TargetRank: "Junior Officer"}, want: 2},
		"both disagree":    {dto: UprankRequestDTO{TargetLevel: 3, TargetRank: "Junior Officer"}, wantErr: true},
		"unknown rank":     {dto: UprankRequestDTO{TargetRank: "Sheriff"}, wantErr: true},
		"neither":          {dto: UprankRequestDTO{}, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.dto.targetLevel()
			if tc.wantErr {
				require.ErrorIs(t, err, serrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
