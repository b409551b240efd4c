package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// DriverError is the database-specific part of a failure, whichever driver raised it.
type DriverError struct {
	Driver     string
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// Diagnosis is an error chain flattened for logging.
type Diagnosis struct {
	Message string
	Code    Code
	Chain   []string
	Driver  *DriverError
}

// Diagnose walks err and pulls out the typed code and any driver error.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	d := Diagnosis{Message: err.Error(), Driver: driverError(err)}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

func driverError(err error) *DriverError {
	var (
		pgErr   *pgconn.PgError
		pqErr   *pq.Error
		liteErr sqlite3.Error
	)
	switch {
	case errors.As(err, &pgErr):
		return &DriverError{
			Driver:     "pgx",
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
			Message:    pgErr.Message,
		}
	case errors.As(err, &pqErr):
		return &DriverError{
			Driver:     "pq",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	case errors.As(err, &liteErr):
		return &DriverError{
			Driver:  "sqlite",
			Code:    liteErr.ExtendedCode.Error(),
			Message: liteErr.Error(),
		}
	}
	return nil
}

// Fields returns the diagnosis as logger fields. Empty driver values are left out.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.Driver == nil {
		return fields
	}
	fields["db_driver"] = d.Driver.Driver
	for k, v := range map[string]string{
		"db_code":       d.Driver.Code,
		"db_constraint": d.Driver.Constraint,
		"db_table":      d.Driver.Table,
		"db_column":     d.Driver.Column,
		"db_detail":     d.Driver.Detail,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
