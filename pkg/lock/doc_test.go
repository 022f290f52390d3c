package lock_test

import (
	"context"
	"github.com/MatthiasKunnen/lockscreen/pkg/lock"
	"log"
	"os"
	"time"
)

func ExampleLock_dbus() {
	ctx := context.Background()
	l, err := lock.NewDbusSessionLock(ctx, os.Getenv("XDG_SESSION_ID"))
	if err != nil {
		log.Fatalf("Failed to initialize dbus lock: %v", err)
	}

	lockSignal := make(chan struct{}, 1)

	err = l.AddLockSignal(lockSignal)
	if err != nil {
		log.Fatalf("Failed to add lock signal: %v", err)
	}

	stop := time.After(10 * time.Second)
	for {
		select {
		case <-lockSignal:
			locked, err := l.GetLocked(ctx)
			if err != nil {
				log.Printf("Failed to get locked hint: %v", err)
			}
			if locked {
				log.Println("Lock signal received, session is already locked")
				continue
			}

			log.Println("Lock signal received, lock the screen")
			// Start the screen locker here, then report the new state.
			err = l.SetLocked(ctx, true)
			if err != nil {
				log.Printf("Failed to set locked to true: %v", err)
			}
		case <-stop:
			err := l.Close()
			if err != nil {
				log.Printf("Failed to close dbus: %v", err)
			}
			return
		}
	}
}
