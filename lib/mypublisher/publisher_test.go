package mypublisher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/restaurantcart/lib/myevents"
	"github.com/MarcGrol/restaurantcart/lib/mytime"
)

type dishOrdered struct {
	DishUID string
}

func (e dishOrdered) GetEventTypeName() string {
	return "menu.dish.ordered"
}

func (e dishOrdered) GetAggregateName() string {
	return e.DishUID
}

type recordingPubSub struct {
	published map[string][]string
}

func (ps *recordingPubSub) CreateTopic(c context.Context, topic string) error {
	return nil
}

func (ps *recordingPubSub) Publish(c context.Context, topic string, data string) error {
	ps.published[topic] = append(ps.published[topic], data)
	return nil
}

func TestPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := context.TODO()

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	ps := &recordingPubSub{published: map[string][]string{}}
	sut := New(ps, nower)

	err := sut.Publish(c, "menu", dishOrdered{DishUID: "1"})
	assert.NoError(t, err)

	assert.Len(t, ps.published["menu"], 1)
	envelope := myevents.EventEnvelope{}
	err = json.Unmarshal([]byte(ps.published["menu"][0]), &envelope)
	assert.NoError(t, err)
	assert.Equal(t, "menu", envelope.Topic)
	assert.Equal(t, "1", envelope.AggregateUID)
	assert.Equal(t, "menu.dish.ordered", envelope.EventTypeName)
	assert.Equal(t, `{"DishUID":"1"}`, envelope.EventPayload)
	assert.Equal(t, mytime.ExampleTime, envelope.CreatedAt)
	assert.NotEmpty(t, envelope.UID)
}

func TestEnveloperIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)

	e := newEnveloper(nower)
	first, err := e.do("menu", dishOrdered{DishUID: "1"})
	assert.NoError(t, err)
	second, err := e.do("menu", dishOrdered{DishUID: "1"})
	assert.NoError(t, err)

	assert.Equal(t, first.UID, second.UID)
}
