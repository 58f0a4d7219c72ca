// Package bingo implements the core session engine for real-time multiplayer
// bingo: board generation, win detection, the per-round state machine and the
// process-wide session registry.
//
// The main types are Session, which manages one round (player roster, the
// timed number-calling record, marking and win adjudication), and Registry,
// which creates sessions, routes players between them and guarantees a player
// occupies at most one session at a time.
//
// # Basic Usage
//
//	reg := bingo.NewRegistry(logger, randutil.New(seed), quartz.NewReal())
//	sess, _ := reg.CreateSession(10)
//	_ = reg.JoinSession(sess.Code(), playerID, reg.GenerateBoard())
//	_ = sess.Start()
//	n, err := sess.CallNumber() // at most once per call interval
//
// # Deterministic Testing
//
// Both the registry and individual sessions take an injected *rand.Rand and
// quartz.Clock. Tests pass randutil.New with a fixed seed and a
// quartz.NewMock clock, then advance the mock past the call interval to
// exercise the timing gate without sleeping.
//
// # Concurrency
//
// Each Session guards its mutable state with its own mutex, so operations on
// different sessions never contend. The Registry serialises its code→session
// and player→code maps under a separate lock and acquires session locks only
// while holding its own, never the reverse. The engine performs no network
// I/O; callers drive it and broadcast the events it publishes.
package bingo
