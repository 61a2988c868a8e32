package ledger

// settle varre todas as apostas do evento recém-resolvido, em ordem de
// inserção, e paga cada vencedora exatamente uma vez. O prêmio é o WinReward
// fixo das settings, independente do valor apostado (modelo do contrato
// original; o payout total não é limitado pelo volume apostado).
//
// O guard de IsProcessed por aposta é redundante com o guard de
// AlreadyResolved no evento, e fica mesmo assim: é a segunda rede contra
// qualquer re-varredura acidental.
func (e *Engine) settle(ev *Event) (winners uint32, payout uint64, settled []SettledBet) {
	reward := e.settings.WinReward
	e.bets.ForEach(func(b *Bet) {
		if b.EventID != ev.ID || b.IsProcessed {
			return
		}
		s := SettledBet{BetID: b.ID, UserID: b.UserID, EventID: b.EventID}
		if b.Prediction == ev.CorrectAnswer {
			b.IsWon = true
			winners++
			payout += reward
			s.Won = true
			s.Payout = reward
			// userId foi validado na criação da aposta e usuários nunca
			// são removidos; o Get aqui não tem caminho de falha real.
			if user, err := e.users.Get(b.UserID); err == nil {
				user.Balance += reward
				user.TotalWins++
				s.NewBalance = user.Balance
			}
		} else if user, err := e.users.Get(b.UserID); err == nil {
			s.NewBalance = user.Balance
		}
		b.IsProcessed = true
		settled = append(settled, s)
	})
	return winners, payout, settled
}
