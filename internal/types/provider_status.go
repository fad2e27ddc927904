package types

// ProviderConnectionStatus reports whether a streaming market data provider is connected.
type ProviderConnectionStatus string

const (
	ProviderStatusConnected    ProviderConnectionStatus = "connected"
	ProviderStatusDisconnected ProviderConnectionStatus = "disconnected"
)

// OnConnectionStatusChange is invoked when a provider connects or disconnects.
type OnConnectionStatusChange func(status ProviderConnectionStatus)
