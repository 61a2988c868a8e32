package ledger

import "fmt"

// record é a visão do Store sobre uma entidade: ela carrega o próprio ID.
type record[T any] interface {
	*T
	entityID() uint32
	assignID(uint32)
}

// Store é uma coleção append-only de capacidade fixa. IDs são densos,
// monotônicos e começam em 1; 0 nunca é um ID válido. Entidades nunca são
// removidas nem realocadas.
type Store[T any, PT record[T]] struct {
	name     string
	capacity int
	entries  []T
	slots    map[uint32]int // índice auxiliar id->posição; só otimização, o ID mora na entidade
	lastID   uint32
}

func NewStore[T any, PT record[T]](name string, capacity int) *Store[T, PT] {
	return &Store[T, PT]{
		name:     name,
		capacity: capacity,
		entries:  make([]T, 0, capacity),
		slots:    make(map[uint32]int, capacity),
	}
}

// Insert atribui o próximo ID e anexa a entidade. Cheio = ErrCapacityExceeded
// sem nenhuma mutação.
func (s *Store[T, PT]) Insert(e T) (uint32, error) {
	if len(s.entries) >= s.capacity {
		return 0, fmt.Errorf("%s store full (%d): %w", s.name, s.capacity, ErrCapacityExceeded)
	}
	id := s.lastID + 1
	PT(&e).assignID(id)
	s.entries = append(s.entries, e)
	s.slots[id] = len(s.entries) - 1
	s.lastID = id
	return id, nil
}

// Get resolve um ID para a entidade armazenada. A varredura linear pelo campo
// de ID é a busca canônica; o mapa de slots só encurta o caminho feliz.
func (s *Store[T, PT]) Get(id uint32) (PT, error) {
	if id == 0 {
		return nil, fmt.Errorf("%s id 0: %w", s.name, ErrNotFound)
	}
	if pos, ok := s.slots[id]; ok {
		return PT(&s.entries[pos]), nil
	}
	for i := range s.entries {
		p := PT(&s.entries[i])
		if p.entityID() == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s id %d: %w", s.name, id, ErrNotFound)
}

// Update localiza por ID e aplica o mutator in place.
func (s *Store[T, PT]) Update(id uint32, fn func(PT)) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

// ForEach visita cada entidade exatamente uma vez, em ordem de inserção.
// A ordem importa para o determinismo da varredura de liquidação.
func (s *Store[T, PT]) ForEach(fn func(PT)) {
	for i := range s.entries {
		fn(PT(&s.entries[i]))
	}
}

func (s *Store[T, PT]) Len() int { return len(s.entries) }

func (s *Store[T, PT]) Cap() int { return s.capacity }

// Full informa se a próxima inserção seria rejeitada.
func (s *Store[T, PT]) Full() bool { return len(s.entries) >= s.capacity }
