package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/predictivelabs/trader/internal/broker Gateway
//go:generate mockgen -destination=./mock_predictor.go -package=mocks github.com/predictivelabs/trader/internal/predictor Predictor,BarSource
