package handler

import (
	"context"

	"github.com/Astemirdum/library-lending/lending/internal/audit"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	Lend(ctx context.Context, req model.LendRequest) (model.Lending, error)
	ReturnBook(ctx context.Context, actingUserID, lendingID string) (model.Lending, error)
	GetLending(ctx context.Context, id string) (model.Lending, error)
	ListLendings(ctx context.Context, filter model.LendingFilter, page, size int) (model.ListLendings, error)
	ListOverdue(ctx context.Context) ([]model.Lending, error)
	CountLendings(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context) (int, error)
	MonthlyLendings(ctx context.Context) ([]model.MonthlyCount, error)
	SetTotalCopies(ctx context.Context, actingUserID, bookID string, total int) (model.Book, error)
	Populate(ctx context.Context, lendings []model.Lending) ([]model.LendingDetails, error)
}

type AuditService interface {
	List(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

var (
	_ LendingService = (*service.Service)(nil)
	_ AuditService   = (*audit.PostgresSink)(nil)
	_ AuditService   = (*audit.MemorySink)(nil)
)
