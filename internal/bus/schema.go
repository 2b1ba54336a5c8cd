package bus

import "fmt"

// Redis channel pattern helpers
//
// Remote selection linking namespaces its Pub/Sub channel by instance name
// so that multiple linked chart groups can safely coexist on a single Redis
// server. Channel pattern: drey:{instance_name}:selection_events

// SelectionEventsChannel returns the Pub/Sub channel name for selection
// entries shared between processes.
// Pattern: drey:{instance_name}:selection_events
func SelectionEventsChannel(instanceName string) string {
	return fmt.Sprintf("drey:%s:selection_events", instanceName)
}
