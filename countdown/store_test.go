package countdown

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/countdown/sim/hooking"
	"github.com/sarchlab/countdown/sim/timing"
)

type publicationRecorder struct {
	lock sync.Mutex
	pubs []Publication
}

func (r *publicationRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosPublish {
		return
	}

	r.lock.Lock()
	r.pubs = append(r.pubs, ctx.Item.(Publication))
	r.lock.Unlock()
}

func (r *publicationRecorder) all() []Publication {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Publication(nil), r.pubs...)
}

func (r *publicationRecorder) count(cause Cause) int {
	n := 0

	for _, p := range r.all() {
		if p.Cause == cause {
			n++
		}
	}

	return n
}

func (r *publicationRecorder) last() Publication {
	pubs := r.all()
	return pubs[len(pubs)-1]
}

var _ = Describe("Store", func() {
	var (
		engine   *timing.SerialEngine
		store    *Store
		recorder *publicationRecorder
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		store = NewStore(engine)
		recorder = &publicationRecorder{}
		store.AcceptHook(recorder)
	})

	It("should start stopped at zero", func() {
		Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
		Expect(store.Name()).To(Equal("Countdown"))
	})

	Context("adjusting digits", func() {
		type adjuster struct {
			unit Unit
			up   func()
			down func()
		}

		adjusters := func() []adjuster {
			return []adjuster{
				{Hour, store.HourUp, store.HourDown},
				{Minute, store.MinuteUp, store.MinuteDown},
				{Second, store.SecondUp, store.SecondDown},
			}
		}

		It("should return to every start value after a full period", func() {
			for _, a := range adjusters() {
				period := a.unit.Max() + 1

				for start := 0; start < period; start++ {
					Expect(store.Adjust(a.unit, start-store.Snapshot().Field(a.unit))).
						To(Succeed())

					for i := 0; i < period; i++ {
						a.up()
					}
					Expect(store.Snapshot().Field(a.unit)).To(Equal(start))

					for i := 0; i < period; i++ {
						a.down()
					}
					Expect(store.Snapshot().Field(a.unit)).To(Equal(start))
				}
			}
		})

		It("should wrap at the domain boundaries", func() {
			store.HourDown()
			store.MinuteDown()
			store.SecondDown()
			Expect(store.Snapshot()).To(Equal(
				Snapshot{Hours: 99, Minutes: 59, Seconds: 59}))

			store.HourUp()
			store.MinuteUp()
			store.SecondUp()
			Expect(store.Snapshot()).To(Equal(Snapshot{}))
		})

		It("should publish every adjustment", func() {
			store.HourUp()
			store.SecondDown()

			Expect(recorder.count(CauseAdjust)).To(Equal(2))
			Expect(recorder.last().Snapshot).To(Equal(
				Snapshot{Hours: 1, Seconds: 59}))
		})

		It("should reject unknown units", func() {
			Expect(store.Adjust(Unit(7), 1)).To(MatchError(ErrUnknownUnit))
			Expect(recorder.all()).To(BeEmpty())
		})

		It("should apply adjustments while running by default", func() {
			store.SecondUp()
			store.Start()

			Expect(store.Adjust(Minute, 1)).To(Succeed())
			Expect(store.Snapshot().Minutes).To(Equal(1))
		})

		It("should refuse adjustments while running when asked to", func() {
			store = NewStore(engine,
				WithAdjustPolicy(RejectWhileRunning), WithInitial(0, 0, 3))
			store.Start()

			Expect(store.Adjust(Minute, 1)).To(MatchError(ErrRunning))
			store.HourUp()
			Expect(store.Snapshot()).To(Equal(
				Snapshot{Mode: Running, Seconds: 3}))

			store.Stop()
			Expect(store.Adjust(Minute, 1)).To(Succeed())
		})
	})

	Context("ticking directly", func() {
		It("should count five seconds down and stop on the sixth tick", func() {
			store = NewStore(engine, WithInitial(0, 0, 5))
			store.Start()

			for _, want := range []int{4, 3, 2, 1, 0} {
				store.Tick()

				Expect(store.Snapshot()).To(Equal(
					Snapshot{Mode: Running, Seconds: want}))
			}

			store.Tick()
			Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
		})

		It("should borrow a minute", func() {
			store = NewStore(engine, WithInitial(0, 1, 0))
			store.Start()

			store.Tick()
			Expect(store.Snapshot()).To(Equal(
				Snapshot{Mode: Running, Seconds: 59}))

			for i := 0; i < 59; i++ {
				store.Tick()
			}
			Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Running}))

			store.Tick()
			Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
		})

		It("should ignore ticks while stopped", func() {
			store.SecondUp()
			store.Tick()

			Expect(store.Snapshot()).To(Equal(Snapshot{Seconds: 1}))
		})
	})

	Context("ticking on the engine", func() {
		It("should tick once per second and finish after the last tick",
			func() {
				for _, initial := range [][3]int{
					{0, 0, 5}, {0, 1, 0}, {0, 2, 3}, {1, 0, 0},
				} {
					engine = timing.NewSerialEngine()
					recorder = &publicationRecorder{}
					store = NewStore(engine,
						WithInitial(initial[0], initial[1], initial[2]))
					store.AcceptHook(recorder)
					total := store.Snapshot().TotalSeconds()

					store.Start()
					Expect(engine.Run()).To(Succeed())

					Expect(recorder.count(CauseTick)).To(Equal(total))
					Expect(recorder.last().Cause).To(Equal(CauseFinish))
					Expect(recorder.last().Time).To(
						Equal(timing.VTimeInSec(total + 1)))
					Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
				}
			})

		It("should publish the seconds in order", func() {
			store.SecondUp()
			store.SecondUp()
			store.SecondUp()
			store.Start()
			Expect(engine.Run()).To(Succeed())

			var seconds []int
			var times []timing.VTimeInSec
			for _, p := range recorder.all() {
				if p.Cause == CauseTick {
					seconds = append(seconds, p.Snapshot.Seconds)
					times = append(times, p.Time)
				}
			}

			Expect(seconds).To(Equal([]int{2, 1, 0}))
			Expect(times).To(Equal([]timing.VTimeInSec{1, 2, 3}))
		})

		It("should stop one second after starting at zero", func() {
			store.Start()
			Expect(store.Snapshot().Mode).To(Equal(Running))

			Expect(engine.Run()).To(Succeed())

			Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
			Expect(recorder.last().Cause).To(Equal(CauseFinish))
			Expect(engine.Now()).To(Equal(timing.VTimeInSec(1)))
		})

		It("should keep the remaining time on stop", func() {
			store = NewStore(engine, WithInitial(0, 0, 10))
			store.AcceptHook(recorder)
			store.Start()

			Expect(engine.RunUntil(3.5)).To(Succeed())
			store.Stop()
			Expect(engine.Run()).To(Succeed())

			Expect(store.Snapshot()).To(Equal(Snapshot{Seconds: 7}))
			Expect(recorder.count(CauseTick)).To(Equal(3))
		})

		It("should treat stop while stopped as a republish", func() {
			store.MinuteUp()
			store.Stop()
			store.Stop()

			Expect(store.Snapshot()).To(Equal(Snapshot{Minutes: 1}))
			Expect(recorder.count(CauseStop)).To(Equal(2))
		})

		It("should restart from the remaining time without duplicate ticks",
			func() {
				store = NewStore(engine, WithInitial(0, 0, 10))
				store.AcceptHook(recorder)
				store.Start()

				Expect(engine.RunUntil(3.5)).To(Succeed())
				Expect(store.Snapshot().Seconds).To(Equal(7))

				store.Start()

				Expect(engine.RunUntil(4.4)).To(Succeed())
				Expect(store.Snapshot().Seconds).To(Equal(7))

				Expect(engine.RunUntil(4.5)).To(Succeed())
				Expect(store.Snapshot().Seconds).To(Equal(6))

				Expect(engine.Run()).To(Succeed())
				Expect(recorder.count(CauseTick)).To(Equal(10))
				Expect(recorder.last().Cause).To(Equal(CauseFinish))
				Expect(recorder.last().Time).To(Equal(timing.VTimeInSec(11.5)))
			})

		It("should stop on the terminal tick when the time was cut short",
			func() {
				store = NewStore(engine, WithInitial(0, 0, 5))
				store.AcceptHook(recorder)
				store.Start()

				Expect(engine.RunUntil(1)).To(Succeed())
				store.SecondDown()
				store.SecondDown()
				store.SecondDown()
				Expect(engine.Run()).To(Succeed())

				Expect(store.Snapshot()).To(Equal(Snapshot{Mode: Stopped}))
				Expect(recorder.last().Cause).To(Equal(CauseTick))
				Expect(recorder.last().Time).To(Equal(timing.VTimeInSec(3)))
			})

		It("should stop on the finish event when time was added", func() {
			store = NewStore(engine, WithInitial(0, 0, 2))
			store.AcceptHook(recorder)
			store.Start()
			store.MinuteUp()

			Expect(engine.Run()).To(Succeed())

			Expect(store.Snapshot()).To(Equal(
				Snapshot{Mode: Stopped, Minutes: 1}))
			Expect(recorder.last().Cause).To(Equal(CauseFinish))
		})

		It("should ignore events it did not schedule", func() {
			store.SecondUp()
			store.Start()

			Expect(store.Handle(&timing.TickEvent{
				EventBase: timing.NewEventBase(0, store),
				Series:    42,
				Seq:       1,
			})).To(Succeed())

			Expect(store.Snapshot().Seconds).To(Equal(1))
		})
	})

	Context("reset and close", func() {
		It("should reset to zero and stop", func() {
			store = NewStore(engine, WithInitial(1, 2, 3))
			store.AcceptHook(recorder)
			store.Start()

			store.Reset()
			Expect(engine.Run()).To(Succeed())

			Expect(store.Snapshot()).To(Equal(Snapshot{}))
			Expect(recorder.count(CauseTick)).To(BeZero())
		})

		It("should cancel ticks and ignore intents after close", func() {
			store = NewStore(engine, WithInitial(0, 0, 5))
			store.AcceptHook(recorder)
			store.Start()

			store.Close()
			store.Close()
			store.Start()
			store.SecondUp()
			Expect(store.Adjust(Hour, 1)).To(MatchError(ErrClosed))
			Expect(engine.Run()).To(Succeed())

			Expect(store.IsClosed()).To(BeTrue())
			Expect(store.Snapshot()).To(Equal(Snapshot{Seconds: 5}))
			Expect(recorder.count(CauseClose)).To(Equal(1))
			Expect(recorder.count(CauseTick)).To(BeZero())
		})
	})
})

var _ = Describe("Store with a mocked engine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEventScheduler
		hook     *MockHook
		store    *Store
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEventScheduler(mockCtrl)
		hook = NewMockHook(mockCtrl)
		store = NewStore(engine, WithName("Kitchen"), WithInitial(0, 0, 2))
		store.AcceptHook(hook)

		engine.EXPECT().Now().Return(timing.VTimeInSec(5)).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the first tick one second after start", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e timing.Event) {
			tick := e.(*timing.TickEvent)
			Expect(tick.Time()).To(Equal(timing.VTimeInSec(6)))
			Expect(tick.Handler()).To(BeIdenticalTo(store))
			Expect(tick.Seq).To(Equal(1))
		})
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(HookPosPublish))
			Expect(ctx.Domain).To(BeIdenticalTo(store))
			Expect(ctx.Item).To(Equal(Publication{
				Snapshot: Snapshot{Mode: Running, Seconds: 2},
				Cause:    CauseStart,
				Time:     5,
			}))
		})

		store.Start()
	})

	It("should not schedule anything on stop", func() {
		hook.EXPECT().Func(gomock.Any())

		store.Stop()
	})

	It("should schedule a fresh series on restart", func() {
		var ticks []*timing.TickEvent
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e timing.Event) {
			ticks = append(ticks, e.(*timing.TickEvent))
		}).Times(2)
		hook.EXPECT().Func(gomock.Any()).Times(2)

		store.Start()
		store.Start()

		Expect(ticks[1].Series).NotTo(Equal(ticks[0].Series))
	})
})
