package minhash

// Lorem ipsum documents sharing only their opening sentence.
const (
	lipsumA = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. In faucibus nibh tortor, quis " +
		"condimentum leo dignissim nec. In a laoreet leo. Suspendisse blandit luctus mollis. " +
		"Praesent nec mi vel turpis vestibulum congue. Proin at diam nec lorem auctor feugiat et " +
		"in ipsum. Pellentesque urna mauris, vulputate pulvinar lectus nec, egestas varius tellus. " +
		"Sed ac mauris in massa venenatis tincidunt. Aliquam erat volutpat. Aliquam ipsum nunc, " +
		"sagittis a tincidunt sit amet, dapibus sit amet lacus. Etiam rhoncus mattis dictum. " +
		"Maecenas porta congue est convallis convallis. Mauris feugiat convallis leo, ut laoreet " +
		"lorem elementum vitae.\n" +
		"Donec vel risus vitae risus auctor fermentum id eget orci. Donec at condimentum nisl. " +
		"Mauris mattis mi lacus. Phasellus a urna imperdiet dolor tincidunt hendrerit. Etiam " +
		"tristique finibus dui eu varius. Class aptent taciti sociosqu ad litora torquent per " +
		"conubia nostra, per inceptos himenaeos. Donec sodales nisi tellus, ut congue neque " +
		"venenatis sed. Curabitur tempus mattis nunc vitae iaculis."

	lipsumB = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Ut quis hendrerit metus. Sed " +
		"metus risus, ultricies non ex id, tincidunt iaculis lorem. Sed facilisis felis neque, " +
		"ac ornare felis bibendum id. Etiam vitae maximus ex, sit amet vestibulum libero. Phasellus " +
		"aliquam justo purus, ut dictum est fringilla vitae. Vivamus suscipit feugiat dignissim. " +
		"Quisque ornare pellentesque erat. Donec lobortis a lectus malesuada dapibus. Vivamus " +
		"massa magna, maximus id sem vel, euismod sagittis dui.\n" +
		"Ut a leo id lacus consectetur varius. Ut pellentesque dictum mi, quis sodales dui viverra " +
		"at. Nam et quam vel nulla lacinia porttitor. Praesent vulputate neque felis, vitae rutrum " +
		"urna porta id. Vestibulum ante ipsum primis in faucibus orci luctus et ultrices posuere " +
		"cubilia Curae; Maecenas velit ante, varius at interdum vel, fringilla vitae elit."
)
