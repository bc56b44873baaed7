// Package scheduling groups the execution primitives of goasync:
//
//   - async: cookie-ordered deferred calls with domains and synchronisation
//   - workerpool: the worker pool deferred calls are handed to
//   - scheduler: timed and cron triggers that fire into async domains
//
// Deferred calls:
//
//	s, _ := async.New(async.Config{})
//	defer s.Close()
//
//	c := s.Schedule(probeDisk, "sda")
//	s.Schedule(probeNIC, "eth0")
//
//	s.SynchronizeCookie(c) // probeDisk and everything scheduled before it are done
//	s.SynchronizeFull()    // everything is done
//
// Timed triggers:
//
//	trig, _ := scheduler.New(s)
//	trig.Start()
//	defer func() { <-trig.Stop() }()
//
//	trig.ScheduleCron("rescan", "0 */5 * * * *", rescan, nil)
//
// All components are safe for concurrent use.
package scheduling
