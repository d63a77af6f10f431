package postgres

// Schema — миграции базы Lumi. SQL встроен в бинарник, отдельные файлы
// при деплое не нужны.
var Schema = []Migration{
	{Version: 1, Name: "members", SQL: migration001Members},
	{Version: 2, Name: "profiles", SQL: migration002Profiles},
	{Version: 3, Name: "point_transactions", SQL: migration003Transactions},
	{Version: 4, Name: "parent_access", SQL: migration004ParentAccess},
	{Version: 5, Name: "study_events", SQL: migration005StudyEvents},
	{Version: 6, Name: "library_documents", SQL: migration006LibraryDocuments},
}

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    is_parent BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_is_parent ON members(is_parent);
`

// Снимок профиля хранится целиком в JSONB, version — для оптимистичной блокировки.
var migration002Profiles = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id BIGINT PRIMARY KEY,
    version BIGINT NOT NULL DEFAULT 1,
    state JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003Transactions = `
CREATE TABLE IF NOT EXISTS point_transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES profiles(user_id),
    delta BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    reason VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_point_transactions_user ON point_transactions(user_id, created_at DESC);
`

var migration004ParentAccess = `
CREATE TABLE IF NOT EXISTS parent_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE NOT NULL,
    authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_parent_sessions_user_id ON parent_sessions(user_id);
CREATE TABLE IF NOT EXISTS parent_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_parent_login_attempts_user ON parent_login_attempts(user_id, attempt_time DESC);
`

var migration005StudyEvents = `
CREATE TABLE IF NOT EXISTS study_events (
    id VARCHAR(64) PRIMARY KEY,
    user_id BIGINT NOT NULL,
    title VARCHAR(255) NOT NULL,
    event_type VARCHAR(16) NOT NULL,
    starts_at TIMESTAMPTZ NOT NULL,
    reminded BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_study_events_user ON study_events(user_id, starts_at);
CREATE INDEX IF NOT EXISTS idx_study_events_due ON study_events(starts_at) WHERE reminded = FALSE;
`

var migration006LibraryDocuments = `
CREATE TABLE IF NOT EXISTS library_documents (
    id VARCHAR(64) PRIMARY KEY,
    user_id BIGINT NOT NULL,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL,
    source VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_library_documents_user ON library_documents(user_id, created_at);
`
