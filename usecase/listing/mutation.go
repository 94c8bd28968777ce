package usecase

import (
	"context"

	"nft-marketplace-onchain/model"
)

// Mutation は送信済みの出品トランザクション。キャンセルはできない
type Mutation struct {
	done    chan struct{}
	receipt *model.ListingReceipt
	err     error
}

func newMutation() *Mutation {
	return &Mutation{done: make(chan struct{})}
}

func (m *Mutation) run(
	ctx context.Context,
	call func(context.Context) (*model.ListingReceipt, error),
	settled func(*model.ListingReceipt, error),
) {
	m.receipt, m.err = call(ctx)
	settled(m.receipt, m.err)
	close(m.done)
}

// Done は結果が確定すると閉じられる
func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

// Wait は結果が確定するか ctx が終わるまで待つ
func (m *Mutation) Wait(ctx context.Context) (*model.ListingReceipt, error) {
	select {
	case <-m.done:
		return m.receipt, m.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
