package postgres

import (
	"fmt"
	"reflect"

	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const tenantField = "TenantID"

// sharedRows is implemented by models whose rows with a NULL tenant are
// visible to every tenant, such as global roles.
type sharedRows interface {
	TenantSharedRows() bool
}

// RegisterScope installs callbacks that confine every statement on a model
// with a TenantID field to the tenant carried by the statement context.
// Statements whose context has no tenant run unscoped.
func RegisterScope(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant:scope_query", scopeRead); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant:scope_row", scopeRead); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:scope_update", scopeWrite); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant:scope_delete", scopeWrite); err != nil {
		return err
	}
	return cb.Create().Before("gorm:create").Register("tenant:stamp_create", stampCreate)
}

func lookupTenantField(db *gorm.DB) (*schema.Field, int64, bool) {
	if db.Statement.Schema == nil {
		return nil, 0, false
	}
	field := db.Statement.Schema.LookUpField(tenantField)
	if field == nil {
		return nil, 0, false
	}
	id, ok := tenant.IDFromContext(db.Statement.Context)
	if !ok {
		return nil, 0, false
	}
	return field, id, true
}

func column(field *schema.Field) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: field.DBName}
}

func scopeRead(db *gorm.DB) {
	field, id, ok := lookupTenantField(db)
	if !ok {
		return
	}

	own := clause.Eq{Column: column(field), Value: id}
	if isShared(db.Statement.Schema) {
		db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
			clause.Or(own, clause.Eq{Column: column(field), Value: nil}),
		}})
		return
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{own}})
}

func scopeWrite(db *gorm.DB) {
	field, id, ok := lookupTenantField(db)
	if !ok {
		return
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: column(field), Value: id},
	}})
}

func stampCreate(db *gorm.DB) {
	field, id, ok := lookupTenantField(db)
	if !ok {
		return
	}

	ctx := db.Statement.Context
	stamp := func(rv reflect.Value) {
		rv = reflect.Indirect(rv)
		if rv.Kind() != reflect.Struct {
			return
		}
		current, zero := field.ValueOf(ctx, rv)
		if zero {
			var value interface{} = id
			if field.FieldType.Kind() == reflect.Ptr {
				value = &id
			}
			if err := field.Set(ctx, rv, value); err != nil {
				_ = db.AddError(err)
			}
			return
		}
		if explicit, ok := asInt64(current); ok && explicit != id {
			_ = db.AddError(fmt.Errorf("tenant scope: row belongs to tenant %d, statement runs as tenant %d", explicit, id))
		}
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			stamp(rv.Index(i))
		}
	default:
		stamp(rv)
	}
}

func isShared(s *schema.Schema) bool {
	model, ok := reflect.New(s.ModelType).Interface().(sharedRows)
	return ok && model.TenantSharedRows()
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case *int64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}
