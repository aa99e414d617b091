package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, name, email, status, created_at, updated_at
		FROM users
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, status) VALUES (?, ?, ?, 'active')`

	queryGetUserById = `
		SELECT id, name, email, status, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryUpdateUserStatus = `
		UPDATE users
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Wallet address queries
	queryInsertAddress = `
		INSERT INTO wallet_addresses (id, user_id, asset, network, address, label, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, asset, network, address, label, is_default, created_at`

	queryFindAddressOwner = `
		SELECT u.id, u.name, u.email, u.status, u.created_at, u.updated_at,
		       a.id, a.user_id, a.asset, a.network, a.address, a.label, a.is_default, a.created_at
		FROM users u
		JOIN wallet_addresses a ON u.id = a.user_id
		WHERE LOWER(a.address) = LOWER(?) AND a.asset = ?`

	// Holding queries
	queryGetHolding = `
		SELECT id, user_id, symbol, quantity, avg_cost_basis, version, updated_at
		FROM holdings
		WHERE user_id = ? AND symbol = ?`

	queryGetHoldings = `
		SELECT id, user_id, symbol, quantity, avg_cost_basis, version, updated_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY symbol`

	queryGetHoldingForUpdate = `
		SELECT id, quantity, avg_cost_basis, version
		FROM holdings
		WHERE user_id = ? AND symbol = ?`

	queryInsertHolding = `
		INSERT INTO holdings (id, user_id, symbol, quantity, avg_cost_basis, version)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryUpdateHolding = `
		UPDATE holdings
		SET quantity = ?, avg_cost_basis = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND symbol = ? AND version = ?`

	// Ledger queries
	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (
			id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
			counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
		          counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at`

	queryFindGroupByRequestId = `
		SELECT group_id FROM ledger_entries WHERE request_id = ? LIMIT 1`

	queryGetEntriesByGroupId = `
		SELECT id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
		       counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at
		FROM ledger_entries
		WHERE group_id = ?
		ORDER BY type DESC`

	queryGetLedgerEntries = `
		SELECT id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
		       counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id`

	queryGetLedgerHistory = `
		SELECT id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
		       counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	queryGetLedgerHistoryByAsset = `
		SELECT id, user_id, type, asset, amount, unit_price, usd_value, fee, status,
		       counterparty_address, counterparty_user_id, group_id, request_id, notes, created_at
		FROM ledger_entries
		WHERE user_id = ? AND asset = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	// Statistics cache queries
	queryUpsertAccountStats = `
		INSERT INTO account_stats (
			user_id, portfolio_value, total_invested, profit_loss, profit_loss_pct,
			total_transactions, buy_count, sell_count, send_count, receive_count,
			swap_count, stake_count, unstake_count, total_volume, total_fees,
			number_of_assets, largest_holding_symbol, largest_holding_value, last_calculated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			portfolio_value = excluded.portfolio_value,
			total_invested = excluded.total_invested,
			profit_loss = excluded.profit_loss,
			profit_loss_pct = excluded.profit_loss_pct,
			total_transactions = excluded.total_transactions,
			buy_count = excluded.buy_count,
			sell_count = excluded.sell_count,
			send_count = excluded.send_count,
			receive_count = excluded.receive_count,
			swap_count = excluded.swap_count,
			stake_count = excluded.stake_count,
			unstake_count = excluded.unstake_count,
			total_volume = excluded.total_volume,
			total_fees = excluded.total_fees,
			number_of_assets = excluded.number_of_assets,
			largest_holding_symbol = excluded.largest_holding_symbol,
			largest_holding_value = excluded.largest_holding_value,
			last_calculated = excluded.last_calculated`

	queryGetAccountStats = `
		SELECT user_id, portfolio_value, total_invested, profit_loss, profit_loss_pct,
		       total_transactions, buy_count, sell_count, send_count, receive_count,
		       swap_count, stake_count, unstake_count, total_volume, total_fees,
		       number_of_assets, largest_holding_symbol, largest_holding_value, last_calculated
		FROM account_stats
		WHERE user_id = ?`
)
