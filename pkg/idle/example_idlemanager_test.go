package idle_test

import (
	"github.com/MatthiasKunnen/lockscreen/pkg/idle"
	"log"
	"os/exec"
	"time"
)

func Example() {
	m, dispatch, err := idle.NewWaylandIdleController()
	if err != nil {
		log.Fatalf("Unable to initialize wayland idle controller: %v", err)
	}
	defer m.Close()

	idled := make(chan struct{})
	resumed := make(chan struct{})

	_, err = m.AddNotification(&idle.CreateIdleNotification{
		Duration: 5 * time.Minute,
		Idle:     idled,
		Resume:   resumed,
	})
	if err != nil {
		log.Fatalf("Failed to add idle notification: %v", err)
	}

	for {
		select {
		case dispatchFunc := <-dispatch:
			err := dispatchFunc()
			if err != nil {
				log.Printf("Dispatch error: %v\n", err)
			}
		case <-resumed:
		case <-idled:
			if err := exec.Command("openvt", "-s", "-w", "--", "lockscreen", "lock").Run(); err != nil {
				log.Printf("Lock failed: %v\n", err)
			}
		}
	}
}
