// Package countdown implements the state store of a single countdown timer.
//
// A Store holds the mode and the remaining hours, minutes, and seconds. The
// presentation layer sends intents (Start, Stop, the digit adjusters) and
// observes the store through hooks or a Subscription. While the store is
// running, a timing.TickScheduler delivers one tick per second on the
// engine the store was built with, and each tick decrements the remaining
// time with borrow propagation.
package countdown
