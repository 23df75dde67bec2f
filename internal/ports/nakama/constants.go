package nakama

const (
	RpcInitialize  = "landlord_initialize"
	RpcCreateTable = "landlord_create_table"
	RpcJoinGame    = "landlord_join_game"
	RpcBid         = "landlord_bid"
	RpcPlay        = "landlord_play"
	RpcPassTurn    = "landlord_pass_turn"
	RpcFinalize    = "landlord_finalize"
	RpcGetTable    = "landlord_get_table"
)

// Storage objects are system-owned and invisible to clients.
const (
	stateCollection      = "landlord"
	stateKey             = "game_state"
	tableCollection      = "landlord_tables"
	settlementCollection = "landlord_settlements"

	walletCurrency = "gold"
)

// Notification codes for server events. Nakama reserves codes <= 0.
const (
	NotifyPlayerJoined    = 101
	NotifyGameStarted     = 102
	NotifyHandDealt       = 103 // sent privately
	NotifyBidPlaced       = 104
	NotifyRedealt         = 105
	NotifyLandlordElected = 106
	NotifyKittyRevealed   = 107 // sent privately
	NotifyCardPlayed      = 108
	NotifyTurnPassed      = 109
	NotifyGameEnded       = 110
	NotifySettlementPaid  = 111
)
