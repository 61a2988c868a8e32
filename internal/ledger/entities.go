package ledger

import "crypto/sha256"

// Capacidades fixadas no deploy; nunca configuráveis em runtime.
const (
	MaxUsers  = 10_000
	MaxEvents = 1_000
	MaxBets   = 100_000
)

// Larguras fixas dos campos de texto. A borda trunca/rejeita antes do core.
const (
	UsernameLen    = 32
	CredentialLen  = 32
	TitleLen       = 128
	DescriptionLen = 256
	CategoryLen    = 32
)

// Identity é a identidade comparável do chamador, já autenticada pelo host.
type Identity [32]byte

// IdentityFromString deriva a identidade a partir do id textual do chamador.
// A borda e os clientes internos usam a mesma derivação.
func IdentityFromString(s string) Identity {
	return Identity(sha256.Sum256([]byte(s)))
}

// User guarda saldo e contadores. Nunca é removido.
type User struct {
	ID             uint32
	Username       [UsernameLen]byte
	CredentialHash [CredentialLen]byte
	Balance        uint64
	TotalBets      uint32
	TotalWins      uint32
	IsActive       bool
}

func (u *User) entityID() uint32 { return u.ID }
func (u *User) assignID(id uint32) { u.ID = id }

// Event é um mercado binário: Open (IsActive) até resolver uma única vez.
// IsActive e IsResolved trocam juntos, exatamente uma vez.
type Event struct {
	ID            uint32
	Title         [TitleLen]byte
	Description   [DescriptionLen]byte
	Category      [CategoryLen]byte
	CreatedAt     uint64
	EndsAt        uint64
	IsActive      bool
	IsResolved    bool
	CorrectAnswer bool // só significa algo depois de IsResolved
	Confidence    uint8
	TotalBets     uint32
	YesBets       uint32
	NoBets        uint32
}

func (e *Event) entityID() uint32 { return e.ID }
func (e *Event) assignID(id uint32) { e.ID = id }

// Bet referencia user e evento existentes no momento da criação.
// IsProcessed sobe uma vez na liquidação e nunca volta.
type Bet struct {
	ID          uint32
	UserID      uint32
	EventID     uint32
	Prediction  bool
	Amount      uint64
	CreatedAt   uint64
	IsWon       bool // só significa algo quando IsProcessed
	IsProcessed bool
}

func (b *Bet) entityID() uint32 { return b.ID }
func (b *Bet) assignID(id uint32) { b.ID = id }

// PutText copia s para um buffer de largura fixa, truncando no limite.
func PutText(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// TextString devolve o conteúdo até o primeiro byte zero.
func TextString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
