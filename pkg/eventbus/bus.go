package eventbus

import (
	"sync"
)

type Topic string

type Message struct {
	Topic Topic
	Data  interface{}
}

type Subscriber chan Message

// Bus fans messages out to the subscribers of a topic. Delivery is
// asynchronous, messages published from different goroutines or in quick
// succession may arrive in any order.
type Bus struct {
	topics map[Topic][]Subscriber
	rw     sync.RWMutex
}

func New() *Bus {
	return &Bus{
		topics: map[Topic][]Subscriber{},
	}
}

func (bus *Bus) Subscribe(subscriber Subscriber, topics ...Topic) {
	bus.rw.Lock()
	for _, topic := range topics {
		bus.topics[topic] = append(bus.topics[topic], subscriber)
	}
	bus.rw.Unlock()
}

func (bus *Bus) Publish(topic Topic, data interface{}) {
	bus.rw.RLock()
	if subscribers := bus.topics[topic]; len(subscribers) > 0 {
		go func(msg Message, subs []Subscriber) {
			for _, subscriber := range subs {
				subscriber <- msg
			}
		}(Message{Topic: topic, Data: data}, append([]Subscriber{}, subscribers...))
	}
	bus.rw.RUnlock()
}

func (bus *Bus) UnSubscribe(subscriber Subscriber, topics ...Topic) {
	bus.rw.Lock()
	for _, topic := range topics {
		subs := bus.topics[topic]
		for i, s := range subs {
			if s == subscriber {
				bus.topics[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
	bus.rw.Unlock()
}
