package models

// All lists every persisted model in dependency order. Used by the sqlite
// schema bootstrap; postgres is managed by goose migrations.
func All() []any {
	return []any{
		&User{},
		&Promotion{},
		&Collection{},
		&Product{},
		&Review{},
		&Tag{},
		&TaggedItem{},
		&Cart{},
		&CartItem{},
		&Customer{},
		&Address{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
