package observer_test

import (
	"errors"
	"fmt"
	"newsfeed/observer"
	"os"
)

func Example() {
	myNews := observer.NewNews(0, "myNews")
	firstNewsObserver := observer.NewNewsObserver(0, "firstNewsObserver", os.Stdout)
	secondNewsObserver := observer.NewNewsObserver(1, "secondNewsObserver", os.Stdout)

	fmt.Println("firstNewsObserver subscription")
	_ = myNews.Subscribe(firstNewsObserver)

	fmt.Println("secondNewsObserver subscription")
	_ = myNews.Subscribe(secondNewsObserver)

	if err := myNews.Subscribe(secondNewsObserver); errors.Is(err, observer.ErrAlreadySubscribed) {
		fmt.Println("secondNewsObserver was already subscribed")
	}

	fmt.Println("myNews update")
	_ = myNews.OnNewsUpdate("Noticia 1")

	fmt.Println("firstNewsObserver unsubscription")
	_ = myNews.Unsubscribe(firstNewsObserver)
	_ = myNews.OnNewsUpdate("Noticia 2")

	fmt.Println(myNews.Items())
	// Output:
	// firstNewsObserver subscription
	// secondNewsObserver subscription
	// secondNewsObserver was already subscribed
	// myNews update
	// I am a NewsObserver called firstNewsObserver and I have observed that News myNews update
	// I am a NewsObserver called secondNewsObserver and I have observed that News myNews update
	// firstNewsObserver unsubscription
	// I am a NewsObserver called secondNewsObserver and I have observed that News myNews update
	// [Noticia 1 Noticia 2]
}
