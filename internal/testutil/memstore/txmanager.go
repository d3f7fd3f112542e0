package memstore

import (
	"context"
	"sync/atomic"
)

// TxManager выполняет функцию без изоляции, считая вызовы.
// Изоляцию параллельных записей обеспечивает уникальность в Store.
type TxManager struct {
	calls atomic.Int64

	// Failures ошибки, которые возвращаются вместо вызова fn по очереди
	Failures []error
	failIdx  atomic.Int64
}

// Calls число запущенных транзакций
func (m *TxManager) Calls() int64 {
	return m.calls.Load()
}

// Do выполняет fn в "транзакции" READ COMMITTED
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoSerializable выполняет fn в "транзакции" SERIALIZABLE
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoReadOnly выполняет fn в "транзакции" только для чтения
func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls.Add(1)
	if idx := m.failIdx.Add(1) - 1; idx < int64(len(m.Failures)) {
		if err := m.Failures[idx]; err != nil {
			return err
		}
	}
	return fn(ctx)
}
