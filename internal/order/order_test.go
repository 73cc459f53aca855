package order

import (
	"context"
	"testing"

	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway implements broker.Gateway for order lifecycle tests.
type stubGateway struct {
	placedDescriptors []types.OrderDescriptor
	placeErr          error
	cancelledIDs      []string
	cancelErr         error
	fillStatus        types.FillStatus
	fillErr           error
	fillCalls         int
}

func (g *stubGateway) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

func (g *stubGateway) GetLastBid(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

func (g *stubGateway) GetLastAsk(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

func (g *stubGateway) MarketIsOpen(ctx context.Context) (bool, error) {
	return true, nil
}

func (g *stubGateway) PlaceOrder(ctx context.Context, descriptor types.OrderDescriptor) (string, error) {
	if g.placeErr != nil {
		return "", g.placeErr
	}

	g.placedDescriptors = append(g.placedDescriptors, descriptor)

	return "broker-1", nil
}

func (g *stubGateway) CancelOrder(ctx context.Context, brokerOrderID string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}

	g.cancelledIDs = append(g.cancelledIDs, brokerOrderID)

	return nil
}

func (g *stubGateway) GetOrderFillStatus(ctx context.Context, brokerOrderID string) (types.FillStatus, error) {
	g.fillCalls++
	if g.fillErr != nil {
		return types.FillStatus{}, g.fillErr
	}

	return g.fillStatus, nil
}

func TestPlaceMarketOrder(t *testing.T) {
	gw := &stubGateway{}
	o := Market("aapl", types.OrderSideBuy, 20)

	id, err := o.Place(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, "broker-1", id)
	assert.Equal(t, "broker-1", o.BrokerID)
	assert.True(t, o.Active)

	require.Len(t, gw.placedDescriptors, 1)
	assert.Equal(t, "AAPL", gw.placedDescriptors[0].Symbol, "symbol should be uppercased")
	assert.Equal(t, types.OrderKindMarket, gw.placedDescriptors[0].Kind)
}

func TestPlaceRejectsInvalidQuantity(t *testing.T) {
	gw := &stubGateway{}
	o := Market("AAPL", types.OrderSideBuy, 0)

	_, err := o.Place(context.Background(), gw)
	require.Error(t, err)
	assert.False(t, o.Active)
	assert.Empty(t, gw.placedDescriptors, "rejected order must not reach the gateway")
}

func TestPlaceRejectsLimitWithoutPrice(t *testing.T) {
	gw := &stubGateway{}
	o := Limit("AAPL", types.OrderSideSell, 5, 0)

	_, err := o.Place(context.Background(), gw)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidLimitPrice))
}

func TestPlacePropagatesBrokerError(t *testing.T) {
	gw := &stubGateway{placeErr: errors.New(errors.ErrCodeOrderRejected, "insufficient buying power")}
	o := Market("AAPL", types.OrderSideBuy, 10)

	_, err := o.Place(context.Background(), gw)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOrderRejected))
	assert.False(t, o.Active)
	assert.Empty(t, o.BrokerID)
}

func TestCancelKeepsPartialFillState(t *testing.T) {
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 12, Quantity: 20, AvgPrice: 50.0, Side: types.OrderSideBuy}}
	o := Market("AAPL", types.OrderSideBuy, 20)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	full, err := o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.False(t, full)

	require.NoError(t, o.Cancel(context.Background(), gw))
	assert.False(t, o.Active)
	assert.Equal(t, int64(12), o.FilledQuantity, "cancellation must not discard filled quantity")
	assert.Equal(t, []string{"broker-1"}, gw.cancelledIDs)
}

func TestCancelUnplacedOrder(t *testing.T) {
	gw := &stubGateway{}
	o := Market("AAPL", types.OrderSideBuy, 20)

	err := o.Cancel(context.Background(), gw)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOrderNotActive))
}

func TestRefreshFillIdempotent(t *testing.T) {
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 12, Quantity: 20, AvgPrice: 50.0, Side: types.OrderSideBuy}}
	o := Market("AAPL", types.OrderSideBuy, 20)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	_, err = o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, int64(12), o.UnreconciledDelta())
	o.MarkReconciled()

	// No broker-side change: a second refresh yields no new delta.
	_, err = o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, int64(0), o.UnreconciledDelta())
	assert.Equal(t, int64(12), o.FilledQuantity)
	assert.Equal(t, 50.0, o.AvgFillPrice)
}

func TestRefreshFillFullFillDeactivates(t *testing.T) {
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 20, Quantity: 20, AvgPrice: 50.0, Side: types.OrderSideBuy}}
	o := Market("AAPL", types.OrderSideBuy, 20)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	full, err := o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.True(t, full)
	assert.False(t, o.Active)
	assert.True(t, o.IsFilled())
}

func TestRefreshFillClampsOverReportedQuantity(t *testing.T) {
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 25, Quantity: 20, AvgPrice: 50.0, Side: types.OrderSideBuy}}
	o := Market("AAPL", types.OrderSideBuy, 20)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	full, err := o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.True(t, full)
	assert.Equal(t, int64(20), o.FilledQuantity, "filled quantity never exceeds requested")
}

func TestRefreshFillLimitPriceFallback(t *testing.T) {
	// Broker reports no average price on a limit fill; the limit price is
	// deterministic once filled.
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 5, Quantity: 5, AvgPrice: 0, Side: types.OrderSideSell}}
	o := Limit("AAPL", types.OrderSideSell, 5, 151.25)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	_, err = o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, 151.25, o.AvgFillPrice)
}

func TestRefreshFillZeroFillKeepsZeroAvg(t *testing.T) {
	gw := &stubGateway{fillStatus: types.FillStatus{FilledQuantity: 0, Quantity: 5, AvgPrice: 0, Side: types.OrderSideBuy}}
	o := Limit("AAPL", types.OrderSideBuy, 5, 151.25)

	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	full, err := o.RefreshFill(context.Background(), gw)
	require.NoError(t, err)
	assert.False(t, full)
	assert.Zero(t, o.AvgFillPrice, "avg price is 0 only while nothing has filled")
}

func TestRefreshFillPropagatesError(t *testing.T) {
	gw := &stubGateway{fillErr: errors.New(errors.ErrCodeFillStatusFailed, "lookup failed")}
	o := Market("AAPL", types.OrderSideBuy, 20)

	gw.fillErr = nil
	_, err := o.Place(context.Background(), gw)
	require.NoError(t, err)

	gw.fillErr = errors.New(errors.ErrCodeFillStatusFailed, "lookup failed")
	_, err = o.RefreshFill(context.Background(), gw)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFillStatusFailed))
}
