package database

// schemas maps database names to their idempotent schema DDL.
// Three-database architecture:
//   - universe.db: fundamental records mirrored from the CSV universe
//   - history.db:  EOD price history keyed by (exchange, symbol, date)
//   - ledger.db:   per-run candidate/recommendation tables, swing signals,
//     and the append-only execution log
var schemas = map[string]string{
	"universe": universeSchema,
	"history":  historySchema,
	"ledger":   ledgerSchema,
}

const universeSchema = `
CREATE TABLE IF NOT EXISTS fundamentals (
    symbol             TEXT PRIMARY KEY,
    name               TEXT NOT NULL DEFAULT '',
    exchange           TEXT NOT NULL DEFAULT 'NSE',
    cmp                REAL NOT NULL CHECK (cmp > 0),
    pe                 REAL,
    mar_cap_cr         REAL,
    div_yld_pct        REAL,
    np_qtr_cr          REAL,
    qtr_profit_var_pct REAL,
    sales_qtr_cr       REAL,
    qtr_sales_var_pct  REAL,
    roce_pct           REAL,
    debt_eq            REAL,
    yf_symbol          TEXT,
    fyers_symbol       TEXT,
    loaded_at          INTEGER NOT NULL
);
`

const historySchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    exchange TEXT NOT NULL,
    symbol   TEXT NOT NULL,
    date     INTEGER NOT NULL,
    open     REAL,
    high     REAL,
    low      REAL,
    close    REAL,
    volume   INTEGER,
    PRIMARY KEY (exchange, symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol_date
    ON daily_prices (exchange, symbol, date);
`

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS candidates (
    symbol             TEXT NOT NULL,
    exchange           TEXT NOT NULL,
    name               TEXT NOT NULL DEFAULT '',
    cmp                REAL NOT NULL,
    fyers_symbol       TEXT,
    pe                 REAL,
    mar_cap_cr         REAL,
    div_yld_pct        REAL,
    np_qtr_cr          REAL,
    qtr_profit_var_pct REAL,
    sales_qtr_cr       REAL,
    qtr_sales_var_pct  REAL,
    roce_pct           REAL,
    debt_eq            REAL,
    last_close         REAL,
    sma20              REAL,
    sma50              REAL,
    sma200             REAL,
    volatility_annual  REAL,
    trend_label        TEXT NOT NULL,
    fundamental_score  REAL NOT NULL,
    technical_score    REAL NOT NULL,
    total_score        REAL NOT NULL,
    risk_flag          TEXT NOT NULL,
    entry_low          REAL,
    entry_high         REAL,
    stop_loss          REAL,
    target1            REAL,
    target2            REAL,
    risk_per_share     REAL,
    rank               INTEGER NOT NULL,
    scanned_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendations (
    id                  TEXT PRIMARY KEY,
    symbol              TEXT NOT NULL,
    exchange            TEXT NOT NULL,
    name                TEXT NOT NULL DEFAULT '',
    fyers_symbol        TEXT NOT NULL,
    cmp                 REAL NOT NULL,
    entry_low           REAL NOT NULL,
    entry_high          REAL NOT NULL,
    recommended_entry   REAL NOT NULL,
    stop_loss           REAL NOT NULL,
    target1             REAL NOT NULL,
    target2             REAL NOT NULL,
    risk_per_share      REAL NOT NULL,
    qty                 INTEGER NOT NULL CHECK (qty > 0),
    capital_required    REAL NOT NULL,
    risk_on_trade       REAL NOT NULL,
    rr_to_target2       REAL NOT NULL,
    fundamental_score   REAL NOT NULL,
    technical_score     REAL NOT NULL,
    total_score         REAL NOT NULL,
    risk_flag           TEXT NOT NULL,
    trend_label         TEXT NOT NULL,
    recommendation_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
    symbol      TEXT NOT NULL,
    side        TEXT NOT NULL,
    entry_price REAL NOT NULL,
    signal_date TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (symbol, signal_date)
);

CREATE TABLE IF NOT EXISTS executions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    executed_date TEXT NOT NULL,
    executed_time TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    fyers_symbol  TEXT NOT NULL,
    side          TEXT NOT NULL,
    qty           INTEGER NOT NULL,
    price         REAL NOT NULL,
    status        TEXT NOT NULL CHECK (status IN ('ok', 'error', 'exception')),
    raw_response  TEXT
);

CREATE INDEX IF NOT EXISTS idx_executions_symbol_date
    ON executions (symbol, executed_date);
`
