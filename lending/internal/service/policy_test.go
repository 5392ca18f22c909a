package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
)

func TestPolicy_LoanDays(t *testing.T) {
	reject := DefaultPolicy()
	clamp := Policy{DefaultDays: 7, MaxDays: 30, Clamp: true}

	tests := []struct {
		name    string
		policy  Policy
		in      *int
		want    int
		wantErr error
	}{
		{name: "default", policy: reject, want: DefaultLoanDays},
		{name: "zero default falls back", policy: Policy{}, want: DefaultLoanDays},
		{name: "configured default", policy: clamp, want: 7},
		{name: "explicit", policy: reject, in: days(3), want: 3},
		{name: "max allowed", policy: reject, in: days(MaxLoanDays), want: MaxLoanDays},
		{name: "zero rejected", policy: reject, in: days(0), wantErr: errs.ErrInvalidLoanPeriod},
		{name: "negative rejected", policy: reject, in: days(-5), wantErr: errs.ErrInvalidLoanPeriod},
		{name: "over max rejected", policy: reject, in: days(91), wantErr: errs.ErrInvalidLoanPeriod},
		{name: "zero clamped", policy: clamp, in: days(0), want: 1},
		{name: "over max clamped", policy: clamp, in: days(31), want: 30},
		{name: "no max", policy: Policy{DefaultDays: 14}, in: days(1000), want: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.LoanDays(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	returned := now.Add(-time.Hour)
	records := []model.Lending{
		{ID: "late", DueDate: now.Add(-time.Hour), Status: model.StatusBorrowed},
		{ID: "already", DueDate: now.Add(-48 * time.Hour), Status: model.StatusOverdue},
		{ID: "on-time", DueDate: now.Add(time.Hour), Status: model.StatusBorrowed},
		{ID: "due-now", DueDate: now, Status: model.StatusBorrowed},
		{ID: "closed", DueDate: now.Add(-time.Hour), ReturnedAt: &returned, Status: model.StatusReturned},
	}

	transition, all := ComputeOverdue(records, now)
	require.Len(t, transition, 1)
	require.Equal(t, "late", transition[0].ID)
	require.Equal(t, model.StatusBorrowed, transition[0].Status)

	ids := make([]string, 0, len(all))
	for _, l := range all {
		ids = append(ids, l.ID)
		require.Equal(t, model.StatusOverdue, l.Status)
	}
	require.Equal(t, []string{"late", "already"}, ids)
	require.Equal(t, model.StatusBorrowed, records[0].Status)

	transition, all = ComputeOverdue(nil, now)
	require.Empty(t, transition)
	require.Empty(t, all)
}
