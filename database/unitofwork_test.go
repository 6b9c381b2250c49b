package database

import (
	"context"
	"errors"
	"testing"

	"checkout-svc/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO addresses").
		WithArgs(7, "1 Main St", "Springfield", "IL", "62701", "US", models.AddressTypeShipping).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	err = RunInTransaction(context.Background(), db, func(uow *UnitOfWork) error {
		id, err := uow.InsertAddress(context.Background(), models.Address{
			UserID: 7, Street: "1 Main St", City: "Springfield", State: "IL",
			PostalCode: "62701", Country: "US", Type: models.AddressTypeShipping,
		})
		if err != nil {
			return err
		}
		if id != 3 {
			t.Errorf("Expected address id 3, got %d", id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected commit, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	boom := errors.New("materialization failed")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = RunInTransaction(context.Background(), db, func(uow *UnitOfWork) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected original error back, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestMarkProductSold_Conditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET status").
		WithArgs(models.ProductStatusSold, "p1", models.ProductStatusAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET status").
		WithArgs(models.ProductStatusSold, "p2", models.ProductStatusAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = RunInTransaction(context.Background(), db, func(uow *UnitOfWork) error {
		sold, err := uow.MarkProductSold(context.Background(), "p1")
		if err != nil {
			return err
		}
		if !sold {
			t.Error("Expected p1 update to take effect")
		}

		sold, err = uow.MarkProductSold(context.Background(), "p2")
		if err != nil {
			return err
		}
		if sold {
			t.Error("Expected p2 update to miss")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("Expected unique violation for code 23505")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("Did not expect unique violation for foreign key code")
	}
	if IsUniqueViolation(errors.New("plain error")) {
		t.Error("Did not expect unique violation for plain error")
	}
}
